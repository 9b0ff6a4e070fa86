package reframe

import (
	"context"
	"fmt"
	"log/slog"

	"reelcut/internal/logging"
)

// SampledPosition is the horizontal face position chosen for one sample.
// Detected is false when X was carried forward or defaulted to the midpoint.
type SampledPosition struct {
	Timestamp float64
	X         float64
	Detected  bool
	// Faces is the number of faces the detector reported for the frame.
	Faces int
}

// Result describes one tracking pass.
type Result struct {
	Samples  []SampledPosition
	Smoothed []float64
	Center   int
	Window   Window
	// Skipped is set when the source is no wider than the target and no frames
	// were sampled.
	Skipped bool
}

// Detections counts samples backed by a real face.
func (r Result) Detections() int {
	n := 0
	for _, s := range r.Samples {
		if s.Detected {
			n++
		}
	}
	return n
}

// Tracker estimates the crop window for clips. It owns a Locator and its cache,
// so it is not safe for concurrent use.
type Tracker struct {
	locator *Locator
	logger  *slog.Logger
}

// NewTracker builds a Tracker around locator.
func NewTracker(locator *Locator, logger *slog.Logger) *Tracker {
	return &Tracker{locator: locator, logger: logging.NewComponentLogger(logger, "tracker")}
}

// Track samples clip, estimates the face trajectory and selects the crop
// window. Frame extraction and detection failures degrade to carry-forward;
// only invalid clips and context cancellation are returned as errors.
func (t *Tracker) Track(ctx context.Context, clip Clip) (Result, error) {
	if err := validateClip(clip); err != nil {
		return Result{}, err
	}
	width, height := clip.Width(), clip.Height()
	logger := logging.WithContext(ctx, t.logger)

	if width <= TargetWidth(height) {
		logger.Info("source already vertical; skipping face tracking",
			logging.Int("width", width),
			logging.Int("height", height),
		)
		return Result{Window: SelectWindow(width, height, width/2), Center: width / 2, Skipped: true}, nil
	}

	t.locator.Reset()
	defer t.locator.Reset()

	times := SampleTimes(clip.Duration())
	samples := make([]SampledPosition, 0, len(times))
	midpoint := float64(width / 2)
	for i, ts := range times {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		sample := SampledPosition{Timestamp: ts, X: midpoint}
		if i > 0 {
			sample.X = samples[i-1].X
		}

		observations, ok := t.locator.Cached(ts)
		if !ok {
			frame, err := clip.FrameAt(ctx, ts)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return Result{}, ctxErr
				}
				logging.WarnWithContext(logger, "frame extraction failed; reusing previous position", "frame_extract_failed",
					logging.Float64("timestamp", ts),
					logging.Error(err),
					logging.String(logging.FieldImpact, "sample carries the previous face position"),
				)
				samples = append(samples, sample)
				continue
			}
			observations = t.locator.LocateAt(ctx, ts, frame)
		}

		sample.Faces = len(observations)
		if len(observations) > 0 {
			sample.X = float64(observations[0].CenterX)
			sample.Detected = true
		}
		logger.Debug("face sample",
			logging.Int("sample", i+1),
			logging.Float64("timestamp", ts),
			logging.Float64("x", sample.X),
			logging.Bool("detected", sample.Detected),
			logging.Int("faces", sample.Faces),
		)
		samples = append(samples, sample)
	}

	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.X
	}
	smoothed := Smooth(xs)
	center := Center(smoothed, width)
	result := Result{
		Samples:  samples,
		Smoothed: smoothed,
		Center:   center,
		Window:   SelectWindow(width, height, center),
	}
	logger.Info("face tracking complete",
		logging.Int("samples", len(samples)),
		logging.Int("detections", result.Detections()),
		logging.Int("center_x", center),
		logging.String("window", result.Window.String()),
	)
	return result, nil
}

// TrackAndCrop tracks clip and applies the resulting window. When no crop is
// needed the original clip is returned.
func (t *Tracker) TrackAndCrop(ctx context.Context, clip Clip) (Clip, Result, error) {
	result, err := t.Track(ctx, clip)
	if err != nil {
		return nil, Result{}, err
	}
	if !result.Window.Cropped {
		return clip, result, nil
	}
	cropped, err := clip.Crop(result.Window.Left, result.Window.Width)
	if err != nil {
		return nil, Result{}, fmt.Errorf("apply crop %s: %w", result.Window, err)
	}
	return cropped, result, nil
}
