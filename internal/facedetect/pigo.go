package facedetect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	pigo "github.com/esimov/pigo/core"

	"reelcut/internal/logging"
	"reelcut/internal/reframe"
)

const (
	pigoShiftFactor = 0.1
	pigoScaleFactor = 1.1
	pigoIoUThresh   = 0.2
)

// PigoOptions configures the pigo cascade detector.
type PigoOptions struct {
	CascadePath string
	// MinConfidence drops detections whose mapped confidence is lower.
	MinConfidence float64
	// QualityHalf is the raw cascade score that maps to confidence 0.5.
	QualityHalf float64
	// MinFaceSize is the smallest face side, in detection-frame pixels.
	MinFaceSize int
}

// Pigo detects faces with a pigo facefinder cascade.
type Pigo struct {
	opts       PigoOptions
	classifier *pigo.Pigo
	logger     *slog.Logger
	mu         sync.Mutex
	closed     bool
}

// NewPigo loads the cascade at opts.CascadePath.
func NewPigo(opts PigoOptions, logger *slog.Logger) (*Pigo, error) {
	if opts.CascadePath == "" {
		return nil, errors.New("pigo: cascade path is required")
	}
	data, err := os.ReadFile(opts.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("pigo: read cascade: %w", err)
	}
	return newPigoFromCascade(data, opts, logger)
}

func newPigoFromCascade(data []byte, opts PigoOptions, logger *slog.Logger) (*Pigo, error) {
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("pigo: unpack cascade: %w", err)
	}
	if opts.QualityHalf <= 0 {
		opts.QualityHalf = 10
	}
	if opts.MinFaceSize <= 0 {
		opts.MinFaceSize = 20
	}
	return &Pigo{
		opts:       opts,
		classifier: classifier,
		logger:     logging.NewComponentLogger(logger, "pigo"),
	}, nil
}

// Name identifies the backend.
func (p *Pigo) Name() string { return BackendPigo }

// Detect runs the cascade over frame. Results are not ranked.
func (p *Pigo) Detect(ctx context.Context, frame image.Image) ([]reframe.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errors.New("pigo: detector closed")
	}

	bounds := frame.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	params := pigo.CascadeParams{
		MinSize:     p.opts.MinFaceSize,
		MaxSize:     min(cols, rows),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(frame),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
	if params.MaxSize < params.MinSize {
		return nil, nil
	}
	dets := p.classifier.RunCascade(params, 0.0)
	dets = p.classifier.ClusterDetections(dets, pigoIoUThresh)

	observations := make([]reframe.Observation, 0, len(dets))
	for _, det := range dets {
		conf := Confidence(float64(det.Q), p.opts.QualityHalf)
		if conf < p.opts.MinConfidence {
			continue
		}
		observations = append(observations, reframe.Observation{
			CenterX:    det.Col,
			CenterY:    det.Row,
			Width:      det.Scale,
			Height:     det.Scale,
			Confidence: conf,
		})
	}
	p.logger.Debug("pigo detections",
		logging.Int("raw", len(dets)),
		logging.Int("kept", len(observations)),
	)
	return observations, nil
}

// Close releases the classifier. Detect fails afterwards.
func (p *Pigo) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.classifier = nil
	return nil
}

// Confidence maps an unbounded cascade score q onto [0,1); q equal to half
// maps to 0.5.
func Confidence(q, half float64) float64 {
	if q <= 0 || half <= 0 {
		return 0
	}
	return q / (q + half)
}
