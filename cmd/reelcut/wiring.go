package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reelcut/internal/captions"
	"reelcut/internal/config"
	"reelcut/internal/facedetect"
	"reelcut/internal/history"
	"reelcut/internal/media/ffmpeg"
	"reelcut/internal/media/ffprobe"
	"reelcut/internal/notifications"
	"reelcut/internal/pipeline"
	"reelcut/internal/services/llm"
	"reelcut/internal/services/whisperx"
)

// session bundles the long-lived resources a processing command opens.
type session struct {
	processor *pipeline.Processor
	detector  facedetect.Detector
	store     *history.Store
}

func (r *session) Close() {
	if r == nil {
		return
	}
	if r.detector != nil {
		_ = r.detector.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}

// newSession wires the pipeline from cfg. withHistory opens the run history
// database; the track command skips it.
func newSession(cfg *config.Config, logger *slog.Logger, withHistory bool) (*session, error) {
	detector, err := facedetect.New(cfg.Tracking, logger)
	if err != nil {
		return nil, fmt.Errorf("face detector: %w", err)
	}
	rt := &session{detector: detector}

	if withHistory {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.store = store
	}

	deps := pipeline.Dependencies{
		Probe:       newProbe(cfg),
		Detector:    detector,
		Transcriber: newTranscriber(cfg),
		Encoder:     newEncoder(cfg, logger),
		Fonts:       captions.ResolveFonts(captions.FontCandidates{Bold: cfg.Captions.BoldFonts, Regular: cfg.Captions.RegularFonts}, logger),
		Store:       rt.store,
		Notifier:    notifications.NewService(cfg),
	}
	if client := newLLMClient(cfg); client != nil {
		deps.Ranker = client
	}

	processor, err := pipeline.NewProcessor(cfg, deps, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.processor = processor
	return rt, nil
}

func newProbe(cfg *config.Config) pipeline.ProbeFunc {
	binary := cfg.FFprobeBinary()
	return func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	}
}

func newTranscriber(cfg *config.Config) *whisperx.Service {
	return whisperx.NewService(whisperx.Options{
		Model:       cfg.Transcription.Model,
		Language:    cfg.Transcription.Language,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
	}, cfg.FFmpegBinary(), nil)
}

func newEncoder(cfg *config.Config, logger *slog.Logger) *ffmpeg.Encoder {
	return ffmpeg.NewEncoder(cfg.FFmpegBinary(), ffmpeg.EncodeOptions{
		VideoCodec:  cfg.Encoding.VideoCodec,
		AudioCodec:  cfg.Encoding.AudioCodec,
		Preset:      cfg.Encoding.Preset,
		CRF:         cfg.Encoding.CRF,
		Threads:     cfg.Encoding.Threads,
		PixelFormat: cfg.Encoding.PixelFormat,
	}, logger)
}

// newLLMClient returns nil when ranking is disabled or no key is configured.
func newLLMClient(cfg *config.Config) *llm.Client {
	if !cfg.Selection.UseLLM {
		return nil
	}
	settings := cfg.GetLLM()
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil
	}
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	})
}
