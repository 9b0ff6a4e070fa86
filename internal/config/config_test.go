package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelcut/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("REELCUT_ENV_FILE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "reelcut", "clips")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "reelcut") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Tracking.Detector != "pigo" {
		t.Fatalf("expected pigo detector by default, got %q", cfg.Tracking.Detector)
	}
	if cfg.Tracking.DetectScale != 0.5 {
		t.Fatalf("expected detect scale 0.5, got %v", cfg.Tracking.DetectScale)
	}
	if !cfg.Captions.Enabled || cfg.Captions.Style != "clean_white" {
		t.Fatalf("unexpected caption defaults: %+v", cfg.Captions)
	}
	if cfg.Selection.Clips != 3 || cfg.Selection.MinSeconds != 20 || cfg.Selection.MaxSeconds != 60 {
		t.Fatalf("unexpected selection defaults: %+v", cfg.Selection)
	}
	if cfg.Encoding.Preset != "faster" || cfg.Encoding.CRF != 20 || cfg.Encoding.Threads != 2 {
		t.Fatalf("unexpected encoding defaults: %+v", cfg.Encoding)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if cfg.Transcription.VADMethod != "silero" {
		t.Fatalf("expected WhisperX VAD default to silero, got %q", cfg.Transcription.VADMethod)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.TempDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelcut.toml")

	type payload struct {
		Captions struct {
			Style             string   `toml:"style"`
			HighlightKeywords []string `toml:"highlight_keywords"`
		} `toml:"captions"`
		Selection struct {
			Clips      int `toml:"clips"`
			MinSeconds int `toml:"min_seconds"`
			MaxSeconds int `toml:"max_seconds"`
		} `toml:"selection"`
		Tracking struct {
			Detector        string   `toml:"detector"`
			DetectorCommand []string `toml:"detector_command"`
		} `toml:"tracking"`
	}
	custom := payload{}
	custom.Captions.Style = " Hot_Pink "
	custom.Captions.HighlightKeywords = []string{"secret", " Money ", "SECRET", ""}
	custom.Selection.Clips = 5
	custom.Selection.MinSeconds = 15
	custom.Selection.MaxSeconds = 45
	custom.Tracking.Detector = "command"
	custom.Tracking.DetectorCommand = []string{"python3", " detect.py "}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Captions.Style != "hot_pink" {
		t.Fatalf("expected normalized style, got %q", cfg.Captions.Style)
	}
	if got := strings.Join(cfg.Captions.HighlightKeywords, ","); got != "SECRET,MONEY" {
		t.Fatalf("unexpected keywords: %q", got)
	}
	if cfg.Selection.Clips != 5 || cfg.Selection.MinSeconds != 15 || cfg.Selection.MaxSeconds != 45 {
		t.Fatalf("unexpected selection: %+v", cfg.Selection)
	}
	if got := strings.Join(cfg.Tracking.DetectorCommand, " "); got != "python3 detect.py" {
		t.Fatalf("unexpected detector command: %q", got)
	}
}

func TestLoadNormalizesTranscriptionLanguage(t *testing.T) {
	tests := []struct {
		value string
		want  string
		err   bool
	}{
		{"English", "en", false},
		{"ger", "de", false},
		{"pt-BR", "pt", false},
		{"auto", "auto", false},
		{"not a language", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("REELCUT_ENV_FILE", "")
			configPath := filepath.Join(t.TempDir(), "reelcut.toml")
			data := "[transcription]\nlanguage = \"" + tt.value + "\"\n"
			if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			cfg, _, _, err := config.Load(configPath)
			if tt.err {
				if err == nil || !strings.Contains(err.Error(), "transcription.language") {
					t.Fatalf("expected transcription.language error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if cfg.Transcription.Language != tt.want {
				t.Fatalf("language = %q, want %q", cfg.Transcription.Language, tt.want)
			}
		})
	}
}

func TestEnvFallbacksFillMissingSecrets(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelcut.toml")
	if err := os.WriteFile(configPath, []byte("[llm]\nmodel = \"custom/model\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REELCUT_ENV_FILE", "")
	t.Setenv("OPENROUTER_API_KEY", "env-openrouter")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	t.Setenv("HF_TOKEN", "env-hf")
	t.Setenv("REELCUT_NTFY_TOPIC", " https://ntfy.example/reelcut ")
	os.Unsetenv("HUGGING_FACE_HUB_TOKEN")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-openrouter" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "custom/model" {
		t.Errorf("expected model from file, got %q", cfg.LLM.Model)
	}
	if cfg.Transcription.HFToken != "env-hf" {
		t.Errorf("expected HF token from env, got %q", cfg.Transcription.HFToken)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/reelcut" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if !cfg.Notifications.RunCompleted || cfg.Notifications.RequestTimeout != 10 {
		t.Errorf("unexpected notification defaults: %+v", cfg.Notifications)
	}
	llm := cfg.GetLLM()
	if llm.APIKey != "env-openrouter" || llm.TimeoutSeconds != 90 {
		t.Errorf("unexpected llm settings: %+v", llm)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	tempDir := t.TempDir()
	envPath := filepath.Join(tempDir, "reelcut.env")
	if err := os.WriteFile(envPath, []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("REELCUT_ENV_FILE", envPath)
	t.Setenv("OPENROUTER_API_KEY", "")
	os.Unsetenv("OPENROUTER_API_KEY")
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "from-dotenv" {
		t.Fatalf("expected key from env file, got %q", cfg.LLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Captions.Style != "clean_white" {
		t.Fatalf("expected sample style clean_white, got %q", cfg.Captions.Style)
	}
	if !strings.Contains(cfg.Paths.OutputDir, "reelcut") {
		t.Fatalf("expected output dir to contain reelcut, got %q", cfg.Paths.OutputDir)
	}
}

func TestEncodeRedactsSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "super-secret"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Fatalf("expected api key to be redacted: %s", data)
	}
	if cfg.LLM.APIKey != "super-secret" {
		t.Fatal("Encode must not modify the receiver")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"min not below max", func(c *config.Config) { c.Selection.MinSeconds = 60 }, "selection.min_seconds must be less than selection.max_seconds"},
		{"zero clips", func(c *config.Config) { c.Selection.Clips = 0 }, "selection.clips must be positive"},
		{"unknown detector", func(c *config.Config) { c.Tracking.Detector = "haar" }, "tracking.detector"},
		{"command without argv", func(c *config.Config) { c.Tracking.Detector = "command" }, "tracking.detector_command"},
		{"scale out of range", func(c *config.Config) { c.Tracking.DetectScale = 1.5 }, "tracking.detect_scale"},
		{"confidence out of range", func(c *config.Config) { c.Tracking.MinConfidence = -0.1 }, "tracking.min_confidence"},
		{"llm without key", func(c *config.Config) { c.Selection.UseLLM = true }, "llm.api_key"},
		{"crf out of range", func(c *config.Config) { c.Encoding.CRF = 60 }, "encoding.crf"},
		{"ntfy timeout", func(c *config.Config) { c.Notifications.RequestTimeout = 0 }, "notifications.request_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
