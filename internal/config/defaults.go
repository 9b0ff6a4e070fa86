package config

const (
	defaultConfigPath        = "~/.config/reelcut/config.toml"
	defaultOutputDir         = "~/reelcut/clips"
	defaultTempDir           = "~/.local/share/reelcut/tmp"
	defaultLogDir            = "~/.local/share/reelcut/logs"
	defaultStateDir          = "~/.local/share/reelcut"
	defaultCascadePath       = "~/.local/share/reelcut/cascade/facefinder"
	defaultDetector          = "pigo"
	defaultDetectScale       = 0.5
	defaultMinConfidence     = 0.5
	defaultQualityHalf       = 10.0
	defaultMinFaceSize       = 20
	defaultCaptionStyle      = "clean_white"
	defaultClips             = 3
	defaultMinSeconds        = 20
	defaultMaxSeconds        = 60
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMReferer        = "https://github.com/reelcut/reelcut"
	defaultLLMTitle          = "reelcut clip selector"
	defaultLLMTimeoutSeconds = 90
	defaultWhisperXModel     = "medium"
	defaultWhisperXLanguage  = "en"
	defaultWhisperXVADMethod = "silero"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultVideoCodec        = "libx264"
	defaultAudioCodec        = "aac"
	defaultPreset            = "faster"
	defaultCRF               = 20
	defaultThreads           = 2
	defaultPixelFormat       = "yuv420p"
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
)

// Default returns a Config populated with repository defaults. Empty caption keyword
// and font lists mean the built-in lists from the captions package.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			TempDir:   defaultTempDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Tracking: Tracking{
			Detector:      defaultDetector,
			CascadePath:   defaultCascadePath,
			DetectScale:   defaultDetectScale,
			MinConfidence: defaultMinConfidence,
			QualityHalf:   defaultQualityHalf,
			MinFaceSize:   defaultMinFaceSize,
		},
		Captions: Captions{
			Enabled: true,
			Style:   defaultCaptionStyle,
		},
		Selection: Selection{
			Clips:      defaultClips,
			MinSeconds: defaultMinSeconds,
			MaxSeconds: defaultMaxSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			Model:     defaultWhisperXModel,
			Language:  defaultWhisperXLanguage,
			VADMethod: defaultWhisperXVADMethod,
		},
		Encoding: Encoding{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
			Threads:       defaultThreads,
			PixelFormat:   defaultPixelFormat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			RunCompleted:   true,
			RunFailed:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
