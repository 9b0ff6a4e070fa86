package reframe

import (
	"context"
	"image"
	"math"
	"sort"
)

// Observation is one detected face in source-frame pixels.
type Observation struct {
	CenterX    int
	CenterY    int
	Width      int
	Height     int
	Confidence float64
}

// Area returns the bounding box area in pixels.
func (o Observation) Area() int {
	return o.Width * o.Height
}

func (o Observation) weight() float64 {
	return o.Confidence * float64(o.Area())
}

// Detector finds faces in a frame. Coordinates are in the frame's pixel space.
// Implementations need not rank their results.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Observation, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, frame image.Image) ([]Observation, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, frame image.Image) ([]Observation, error) {
	return f(ctx, frame)
}

// Rank drops malformed observations, clamps confidence to [0,1] and orders the
// rest by confidence*area, best first. Ties keep detector order.
func Rank(observations []Observation) []Observation {
	ranked := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Width <= 0 || obs.Height <= 0 || math.IsNaN(obs.Confidence) {
			continue
		}
		obs.Confidence = min(max(obs.Confidence, 0), 1)
		ranked = append(ranked, obs)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].weight() > ranked[j].weight()
	})
	return ranked
}
