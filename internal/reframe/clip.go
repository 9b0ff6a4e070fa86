package reframe

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrInvalidClip reports a clip whose dimensions or duration cannot be reframed.
var ErrInvalidClip = errors.New("invalid clip")

// Clip is a time-bounded video handle. Timestamps passed to FrameAt are relative
// to the start of the clip.
type Clip interface {
	Width() int
	Height() int
	Duration() float64
	FrameAt(ctx context.Context, t float64) (image.Image, error)
	// Crop returns a handle restricted to the columns [left, left+width).
	Crop(left, width int) (Clip, error)
}

func validateClip(clip Clip) error {
	if clip == nil {
		return fmt.Errorf("%w: nil clip", ErrInvalidClip)
	}
	if clip.Width() <= 0 || clip.Height() <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidClip, clip.Width(), clip.Height())
	}
	if d := clip.Duration(); !(d > 0) {
		return fmt.Errorf("%w: duration %v", ErrInvalidClip, d)
	}
	if TargetWidth(clip.Height()) < 2 {
		return fmt.Errorf("%w: height %d too small for a vertical crop", ErrInvalidClip, clip.Height())
	}
	return nil
}
