package facedetect

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"reelcut/internal/config"
	"reelcut/internal/reframe"
)

// Backend names accepted in tracking.detector.
const (
	BackendPigo    = "pigo"
	BackendCommand = "command"
)

// Detector is a reframe.Detector holding resources that must be released.
type Detector interface {
	reframe.Detector
	io.Closer
	Name() string
}

// New builds the detector selected by cfg.
func New(cfg config.Tracking, logger *slog.Logger) (Detector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Detector)) {
	case "", BackendPigo:
		return NewPigo(PigoOptions{
			CascadePath:   cfg.CascadePath,
			MinConfidence: cfg.MinConfidence,
			QualityHalf:   cfg.QualityHalf,
			MinFaceSize:   cfg.MinFaceSize,
		}, logger)
	case BackendCommand:
		return NewCommand(cfg.DetectorCommand, cfg.MinConfidence, logger)
	default:
		return nil, fmt.Errorf("unknown face detector %q", cfg.Detector)
	}
}
