package config

import (
	"fmt"
	"os"
	"strings"

	"reelcut/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTracking(); err != nil {
		return err
	}
	c.normalizeCaptions()
	c.normalizeLLM()
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("REELCUT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTracking() error {
	c.Tracking.Detector = strings.ToLower(strings.TrimSpace(c.Tracking.Detector))
	if c.Tracking.Detector == "" {
		c.Tracking.Detector = defaultDetector
	}
	if strings.TrimSpace(c.Tracking.CascadePath) == "" {
		c.Tracking.CascadePath = defaultCascadePath
	}
	var err error
	if c.Tracking.CascadePath, err = expandPath(c.Tracking.CascadePath); err != nil {
		return fmt.Errorf("tracking.cascade_path: %w", err)
	}
	command := make([]string, 0, len(c.Tracking.DetectorCommand))
	for _, arg := range c.Tracking.DetectorCommand {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	c.Tracking.DetectorCommand = command
	if c.Tracking.DetectScale == 0 {
		c.Tracking.DetectScale = defaultDetectScale
	}
	if c.Tracking.QualityHalf == 0 {
		c.Tracking.QualityHalf = defaultQualityHalf
	}
	if c.Tracking.MinFaceSize == 0 {
		c.Tracking.MinFaceSize = defaultMinFaceSize
	}
	return nil
}

func (c *Config) normalizeCaptions() {
	c.Captions.Style = strings.ToLower(strings.TrimSpace(c.Captions.Style))
	if c.Captions.Style == "" {
		c.Captions.Style = defaultCaptionStyle
	}
	c.Captions.HighlightKeywords = normalizeList(c.Captions.HighlightKeywords, strings.ToUpper)
	c.Captions.BoldFonts = normalizeList(c.Captions.BoldFonts, nil)
	c.Captions.RegularFonts = normalizeList(c.Captions.RegularFonts, nil)
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranscription() error {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperXModel
	}
	lang := strings.TrimSpace(c.Transcription.Language)
	if lang == "" {
		lang = defaultWhisperXLanguage
	}
	normalized, err := language.Normalize(lang)
	if err != nil {
		return fmt.Errorf("transcription.language: %w", err)
	}
	if normalized == "" {
		normalized = language.Auto
	}
	c.Transcription.Language = normalized
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultWhisperXVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.FFmpegBinary = strings.TrimSpace(c.Encoding.FFmpegBinary)
	if c.Encoding.FFmpegBinary == "" {
		c.Encoding.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoding.FFprobeBinary = strings.TrimSpace(c.Encoding.FFprobeBinary)
	if c.Encoding.FFprobeBinary == "" {
		c.Encoding.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoding.VideoCodec = strings.TrimSpace(c.Encoding.VideoCodec)
	if c.Encoding.VideoCodec == "" {
		c.Encoding.VideoCodec = defaultVideoCodec
	}
	c.Encoding.AudioCodec = strings.TrimSpace(c.Encoding.AudioCodec)
	if c.Encoding.AudioCodec == "" {
		c.Encoding.AudioCodec = defaultAudioCodec
	}
	c.Encoding.Preset = strings.ToLower(strings.TrimSpace(c.Encoding.Preset))
	if c.Encoding.Preset == "" {
		c.Encoding.Preset = defaultPreset
	}
	c.Encoding.PixelFormat = strings.TrimSpace(c.Encoding.PixelFormat)
	if c.Encoding.PixelFormat == "" {
		c.Encoding.PixelFormat = defaultPixelFormat
	}
	if c.Encoding.Threads < 0 {
		c.Encoding.Threads = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// normalizeList trims entries, drops blanks and duplicates, and applies an optional
// transform before comparison.
func normalizeList(values []string, transform func(string) string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if transform != nil {
			normalized = transform(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
