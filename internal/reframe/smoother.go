package reframe

import "sort"

// SmoothingWindow is the moving-average window applied to sampled positions.
const SmoothingWindow = 3

// Smooth applies a centered moving average over xs. Sequences no longer than
// the window are returned as an unchanged copy.
func Smooth(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) <= SmoothingWindow {
		copy(out, xs)
		return out
	}
	half := SmoothingWindow / 2
	for i := range xs {
		lo := max(0, i-half)
		hi := min(len(xs), i+half+1)
		sum := 0.0
		for _, x := range xs[lo:hi] {
			sum += x
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// Center reduces smoothed positions to a single crop center using the median,
// truncated to whole pixels. With no positions the frame midpoint is used.
func Center(smoothed []float64, frameWidth int) int {
	if len(smoothed) == 0 {
		return frameWidth / 2
	}
	sorted := append([]float64(nil), smoothed...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return int(median)
}
