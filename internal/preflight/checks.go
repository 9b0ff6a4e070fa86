package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelcut/internal/captions"
	"reelcut/internal/config"
	"reelcut/internal/deps"
	"reelcut/internal/facedetect"
	"reelcut/internal/logging"
	"reelcut/internal/services/llm"
	"reelcut/internal/services/whisperx"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetry(1, 0, 0))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDetector verifies the configured face detector can be constructed:
// the pigo cascade must be readable, or the detector command must resolve.
func CheckDetector(cfg config.Tracking) Result {
	const name = "Face detector"

	switch cfg.Detector {
	case facedetect.BackendCommand:
		if len(cfg.DetectorCommand) == 0 {
			return Result{Name: name, Detail: "detector_command is empty"}
		}
		path, err := exec.LookPath(cfg.DetectorCommand[0])
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("command %q not found", cfg.DetectorCommand[0])}
		}
		return Result{Name: name, Passed: true, Detail: "command " + path}
	default:
		info, err := os.Stat(cfg.CascadePath)
		if err != nil {
			if os.IsNotExist(err) {
				return Result{Name: name, Detail: fmt.Sprintf("pigo cascade %s does not exist", cfg.CascadePath)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("pigo cascade %s: %v", cfg.CascadePath, err)}
		}
		if info.IsDir() || info.Size() == 0 {
			return Result{Name: name, Detail: fmt.Sprintf("pigo cascade %s is not a cascade file", cfg.CascadePath)}
		}
		if err := unix.Access(cfg.CascadePath, unix.R_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("pigo cascade %s is not readable: %v", cfg.CascadePath, err)}
		}
		return Result{Name: name, Passed: true, Detail: "pigo cascade " + cfg.CascadePath}
	}
}

// CheckFonts resolves the caption fonts. Falling back to the embedded Go
// fonts passes with a note.
func CheckFonts(cfg config.Captions, logger *slog.Logger) Result {
	const name = "Caption fonts"

	if logger == nil {
		logger = logging.NewNop()
	}
	set := captions.ResolveFonts(captions.FontCandidates{Bold: cfg.BoldFonts, Regular: cfg.RegularFonts}, logger)
	if set.Bold.Font == nil || set.Regular.Font == nil {
		return Result{Name: name, Detail: "no usable font"}
	}
	detail := fmt.Sprintf("bold %s, regular %s", set.Bold.Source, set.Regular.Source)
	if set.Bold.Source == "builtin" || set.Regular.Source == "builtin" {
		detail += " (system fonts not found; using embedded Go fonts)"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates all system-level dependencies for the given config.
// The CLI check command and process preflight share this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for frame extraction and encoding",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Runs WhisperX when no transcript is supplied",
			Optional:    true,
		},
	}
	statuses := deps.Check(ctx, requirements, nil)
	if statuses[0].Available {
		statuses = append(statuses, deps.CheckFFmpegCapabilities(ctx, statuses[0].Command, cfg.Encoding.VideoCodec, nil))
	}
	return statuses
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return strings.TrimSpace(err.Error())
}
