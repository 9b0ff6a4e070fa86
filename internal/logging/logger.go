package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"reelcut/internal/config"
)

// Options configures a console or JSON logger.
type Options struct {
	Level  string
	Format string
	// Output defaults to stderr.
	Output io.Writer
	// Caller adds file:line to every record. Debug level always does.
	Caller bool
	// Color forces level colouring on or off. Nil colours only a terminal stderr.
	Color *bool
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	caller := opts.Caller || level.Level() <= slog.LevelDebug

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		return slog.New(newJSONHandler(out, level, caller)), nil
	case "console", "":
		color := out == os.Stderr && isatty.IsTerminal(os.Stderr.Fd())
		if opts.Color != nil {
			color = *opts.Color
		}
		return slog.New(newPrettyHandler(out, level, caller, color)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates the run logger: console (or JSON) output on stderr teed into
// a per-run JSON file under logging.log_dir. The file path is returned so callers can
// exclude it from retention pruning and mention it to the user.
func NewFromConfig(cfg *config.Config) (*slog.Logger, string, error) {
	if cfg == nil {
		logger, err := New(Options{Level: "info", Format: "console"})
		return logger, "", err
	}

	console, err := New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return console, "", nil
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("ensure log directory: %w", err)
	}
	logPath := filepath.Join(cfg.Paths.LogDir, RunLogName(time.Now()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, "", fmt.Errorf("open log file %s: %w", logPath, err)
	}
	fileLevel := new(slog.LevelVar)
	fileLevel.Set(slog.LevelDebug)
	return TeeLogger(console, newJSONHandler(file, fileLevel, false)), logPath, nil
}

// RunLogName returns the file name used for a run started at ts.
func RunLogName(ts time.Time) string {
	return "reelcut-" + ts.UTC().Format("20060102T150405Z") + ".log"
}

// RunLogPattern matches files produced by RunLogName.
const RunLogPattern = "reelcut-*.log"

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	default:
		if err := parsed.UnmarshalText([]byte(level)); err != nil {
			return slog.LevelInfo
		}
		return parsed
	}
}
