package reframe

import "math"

// SampleCount returns how many frames to inspect for a clip of d seconds.
// Short clips get 3-6 samples (one per ~3s), longer clips 6-8 (one per ~4s).
func SampleCount(d float64) int {
	if d <= 10 {
		return clampInt(int(math.Round(d/3)), 3, 6)
	}
	return clampInt(int(math.Round(d/4)), 6, 8)
}

// SampleTimes returns SampleCount(d) evenly spaced timestamps covering [0, d]
// inclusive of both ends.
func SampleTimes(d float64) []float64 {
	n := SampleCount(d)
	times := make([]float64, n)
	step := d / float64(n-1)
	for i := range times {
		times[i] = float64(i) * step
	}
	times[n-1] = d
	return times
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
