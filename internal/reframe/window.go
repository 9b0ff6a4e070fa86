package reframe

import "fmt"

// Window is the crop rectangle applied to a clip. The crop spans the full
// height; Cropped is false when the source is already narrow enough.
type Window struct {
	Left    int
	Width   int
	Height  int
	Cropped bool
}

func (w Window) String() string {
	if !w.Cropped {
		return fmt.Sprintf("uncropped %dx%d", w.Width, w.Height)
	}
	return fmt.Sprintf("%dx%d+%d", w.Width, w.Height, w.Left)
}

// TargetWidth returns the even 9:16 crop width for a frame of height h.
func TargetWidth(h int) int {
	target := h * 9 / 16
	if target%2 != 0 {
		target--
	}
	return target
}

// SelectWindow derives the crop for a w x h frame centered as close to cx as
// the frame allows.
func SelectWindow(w, h, cx int) Window {
	target := TargetWidth(h)
	if w <= target {
		return Window{Width: w, Height: h}
	}
	half := target / 2
	cx = min(max(cx, half), w-half)
	return Window{Left: cx - half, Width: target, Height: h, Cropped: true}
}
