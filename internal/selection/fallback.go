package selection

import (
	"fmt"
	"math/rand/v2"

	"reelcut/internal/transcript"
)

// Scores assigned to clips chosen without ranking.
const (
	RandomScore  = 30
	SegmentScore = 50
)

// Request bounds a selection.
type Request struct {
	// Duration is the length of the source video in seconds.
	Duration   float64
	Clips      int
	MinSeconds float64
	MaxSeconds float64
}

// Random picks n uniformly random spans with lengths in [min, max]. A draw
// whose length does not fit in the source is skipped, so fewer than n specs
// may be returned.
func Random(req Request, rng *rand.Rand) []Spec {
	var specs []Spec
	for i := range req.Clips {
		length := req.MinSeconds + rng.Float64()*(req.MaxSeconds-req.MinSeconds)
		if req.Duration-length <= 0 {
			continue
		}
		start := rng.Float64() * (req.Duration - length)
		specs = append(specs, Spec{
			Start:    start,
			End:      start + length,
			Title:    fmt.Sprintf("Random clip %d", i+1),
			Score:    RandomScore,
			HookType: DefaultHookType,
		})
	}
	return specs
}

// FromSegments picks up to n distinct transcript segments at random. A clip
// starts where its segment starts; when the segment is shorter than min it is
// extended to the end of the next segment, and it is never longer than max.
func FromSegments(segments []transcript.Segment, req Request, rng *rand.Rand) []Spec {
	available := make([]int, len(segments))
	for i := range available {
		available[i] = i
	}
	var specs []Spec
	for i := 0; i < req.Clips && len(available) > 0; i++ {
		pick := rng.IntN(len(available))
		idx := available[pick]
		available = append(available[:pick], available[pick+1:]...)

		seg := segments[idx]
		length := min(req.MaxSeconds, seg.End-seg.Start)
		if length < req.MinSeconds && idx+1 < len(segments) {
			length = min(req.MaxSeconds, segments[idx+1].End-seg.Start)
		}
		if length <= 0 {
			continue
		}
		specs = append(specs, Spec{
			Start:    seg.Start,
			End:      seg.Start + length,
			Title:    fmt.Sprintf("Fallback clip %d", i+1),
			Score:    SegmentScore,
			HookType: DefaultHookType,
		})
	}
	return specs
}
