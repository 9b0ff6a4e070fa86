package reframe

import (
	"context"
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"

	"reelcut/internal/logging"
)

// DefaultDetectScale is the per-axis downscale applied before detection.
const DefaultDetectScale = 0.5

// Locator wraps a Detector with frame downscaling, result ranking and a
// per-clip cache keyed by sample timestamp. A Locator is not safe for
// concurrent use; give each tracking pass its own.
type Locator struct {
	detector Detector
	scale    float64
	logger   *slog.Logger
	cache    map[float64][]Observation
}

// NewLocator builds a Locator. A scale outside (0,1] falls back to DefaultDetectScale.
func NewLocator(detector Detector, scale float64, logger *slog.Logger) *Locator {
	if !(scale > 0 && scale <= 1) {
		scale = DefaultDetectScale
	}
	return &Locator{
		detector: detector,
		scale:    scale,
		logger:   logging.NewComponentLogger(logger, "locator"),
		cache:    make(map[float64][]Observation),
	}
}

// Locate detects faces in frame and returns them ranked best first, in the
// frame's own pixel space. Detector failures are logged and produce an empty
// result.
func (l *Locator) Locate(ctx context.Context, frame image.Image) []Observation {
	if frame == nil || l.detector == nil {
		return nil
	}
	bounds := frame.Bounds()
	if bounds.Empty() {
		return nil
	}

	small, sx, sy := downscale(frame, l.scale)
	found, err := l.detector.Detect(ctx, small)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, l.logger), "face detection failed; frame treated as empty", "face_detect_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "sample falls back to previous position"),
		)
		return nil
	}

	scaled := make([]Observation, 0, len(found))
	for _, obs := range found {
		scaled = append(scaled, Observation{
			CenterX:    bounds.Min.X + int(math.Round(float64(obs.CenterX)*sx)),
			CenterY:    bounds.Min.Y + int(math.Round(float64(obs.CenterY)*sy)),
			Width:      int(math.Round(float64(obs.Width) * sx)),
			Height:     int(math.Round(float64(obs.Height) * sy)),
			Confidence: obs.Confidence,
		})
	}
	return Rank(scaled)
}

// LocateAt is Locate with the result cached under timestamp t.
func (l *Locator) LocateAt(ctx context.Context, t float64, frame image.Image) []Observation {
	if cached, ok := l.cache[t]; ok {
		return cached
	}
	observations := l.Locate(ctx, frame)
	l.cache[t] = observations
	return observations
}

// Cached reports the cached observations for timestamp t.
func (l *Locator) Cached(t float64) ([]Observation, bool) {
	observations, ok := l.cache[t]
	return observations, ok
}

// Reset drops every cached result.
func (l *Locator) Reset() {
	clear(l.cache)
}

// downscale returns frame resized by scale along with the factors that map
// coordinates in the result back to the source.
func downscale(frame image.Image, scale float64) (image.Image, float64, float64) {
	bounds := frame.Bounds()
	if scale >= 1 {
		return translate(frame), 1, 1
	}
	w := max(1, int(float64(bounds.Dx())*scale))
	h := max(1, int(float64(bounds.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, bounds, draw.Src, nil)
	return dst, float64(bounds.Dx()) / float64(w), float64(bounds.Dy()) / float64(h)
}

// translate moves a frame to a zero origin so detectors see (0,0) at the top left.
func translate(frame image.Image) image.Image {
	bounds := frame.Bounds()
	if bounds.Min == (image.Point{}) {
		return frame
	}
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, bounds.Min, draw.Src)
	return dst
}
