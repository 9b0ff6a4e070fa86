package whisperx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// UVXCommand launches WhisperX through uv's tool runner.
const UVXCommand = "uvx"

// AutoLanguage asks WhisperX to detect the spoken language.
const AutoLanguage = "auto"

const (
	defaultModel = "medium"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL = "https://pypi.org/simple"

	vadPyannote = "pyannote"
	vadSilero   = "silero"

	// failureTailLines bounds how much WhisperX output is quoted in errors.
	failureTailLines = 6
)

// Options selects the model, language and hardware WhisperX runs with.
type Options struct {
	Model string
	// Language is an ISO 639-1 code. Empty or AutoLanguage defers to the
	// per-call hint, then to detection.
	Language    string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote"; pyannote needs HFToken.
	VADMethod string
	HFToken   string
}

// Runner executes name with args and returns combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service turns a source video into a word-timed WhisperX JSON transcript.
type Service struct {
	opts   Options
	ffmpeg string
	run    Runner
}

// NewService returns a Service using ffmpegBinary for audio extraction. A nil
// runner executes the commands directly.
func NewService(opts Options, ffmpegBinary string, run Runner) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if run == nil {
		run = execRunner
	}
	return &Service{opts: opts, ffmpeg: ffmpegBinary, run: run}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// pyannote checkpoints fail to load under torch's weights_only default.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return cmd.CombinedOutput()
}

// Model reports the model that will be requested.
func (s *Service) Model() string {
	if m := strings.TrimSpace(s.opts.Model); m != "" {
		return m
	}
	return defaultModel
}

// Transcribe extracts the audio of source into workDir, runs WhisperX on it
// and returns the path of the JSON transcript. languageHint, usually the
// container's audio language tag, is used only when no language is configured.
func (s *Service) Transcribe(ctx context.Context, source, workDir, languageHint string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("transcribe: source path required")
	}
	if workDir == "" {
		return "", fmt.Errorf("transcribe: workDir required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure workDir: %w", err)
	}

	audio := filepath.Join(workDir, "audio.wav")
	if err := s.ExtractAudio(ctx, source, audio); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if err := s.exec(ctx, UVXCommand, s.buildArgs(audio, workDir, languageHint)); err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}

	// WhisperX names its output after the input file.
	transcript := filepath.Join(workDir, "audio.json")
	if _, err := os.Stat(transcript); err != nil {
		return "", fmt.Errorf("whisperx: transcript missing: %w", err)
	}
	return transcript, nil
}

func (s *Service) exec(ctx context.Context, name string, args []string) error {
	out, err := s.run(ctx, name, args...)
	if err == nil {
		return nil
	}
	if tail := outputTail(out, failureTailLines); tail != "" {
		return fmt.Errorf("%s: %w: %s", name, err, tail)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// outputTail keeps the last n non-empty lines of out, joined with " | ".
func outputTail(out []byte, n int) string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// buildArgs assembles the uvx invocation. Batch, chunk and VAD thresholds
// favour word-level timing.
func (s *Service) buildArgs(audio, outputDir, languageHint string) []string {
	args := s.indexArgs()
	args = append(args,
		"whisperx", audio,
		"--model", s.Model(),
		"--batch_size", "4",
		"--output_dir", outputDir,
		"--output_format", "json",
		"--segment_resolution", "sentence",
		"--chunk_size", "15",
		"--vad_onset", "0.08",
		"--vad_offset", "0.07",
	)
	args = append(args, s.vadArgs()...)
	if lang := s.language(languageHint); lang != "" {
		args = append(args, "--language", lang)
	}
	return append(args, s.deviceArgs()...)
}

func (s *Service) indexArgs() []string {
	if s.opts.CUDAEnabled {
		return []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
	}
	return []string{"--index-url", pypiIndexURL}
}

func (s *Service) vadArgs() []string {
	method := strings.ToLower(strings.TrimSpace(s.opts.VADMethod))
	if method == "" {
		method = vadSilero
	}
	args := []string{"--vad_method", method}
	if method == vadPyannote && s.opts.HFToken != "" {
		args = append(args, "--hf_token", s.opts.HFToken)
	}
	return args
}

func (s *Service) deviceArgs() []string {
	if s.opts.CUDAEnabled {
		return []string{"--device", "cuda"}
	}
	return []string{"--device", "cpu", "--compute_type", "float32"}
}

// language picks the configured language, then the hint. It returns "" when
// WhisperX should detect.
func (s *Service) language(hint string) string {
	for _, candidate := range []string{s.opts.Language, hint} {
		lang := strings.ToLower(strings.TrimSpace(candidate))
		if lang != "" && lang != AutoLanguage {
			return lang
		}
	}
	return ""
}
