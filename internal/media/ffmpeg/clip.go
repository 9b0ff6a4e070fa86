package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"reelcut/internal/reframe"
)

// frameGuard keeps frame requests off the very last timestamp, where ffmpeg
// may have no frame left to decode.
const frameGuard = 0.05

// ClipOptions describes a time range of a source video.
type ClipOptions struct {
	Binary   string
	Source   string
	Start    float64
	Duration float64
	Width    int
	Height   int
	Runner   CommandRunner
}

// Clip is a time range of a source file, optionally restricted to a column
// window. It implements reframe.Clip.
type Clip struct {
	binary   string
	source   string
	start    float64
	duration float64
	width    int
	height   int
	left     int
	cropped  bool
	run      CommandRunner
}

// NewClip builds a clip handle. Dimension and duration checks are left to the
// tracker, which reports them as reframe.ErrInvalidClip.
func NewClip(opts ClipOptions) (*Clip, error) {
	if strings.TrimSpace(opts.Source) == "" {
		return nil, errors.New("clip source path is required")
	}
	if opts.Start < 0 {
		return nil, fmt.Errorf("clip start %.3f is negative", opts.Start)
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = DefaultBinary
	}
	run := opts.Runner
	if run == nil {
		run = defaultCommandRunner
	}
	return &Clip{
		binary:   binary,
		source:   opts.Source,
		start:    opts.Start,
		duration: opts.Duration,
		width:    opts.Width,
		height:   opts.Height,
		run:      run,
	}, nil
}

func (c *Clip) Width() int        { return c.width }
func (c *Clip) Height() int       { return c.height }
func (c *Clip) Duration() float64 { return c.duration }

// Source returns the media path the clip reads from.
func (c *Clip) Source() string { return c.source }

// Start returns the clip offset within the source in seconds.
func (c *Clip) Start() float64 { return c.start }

// CropLeft returns the left edge of the crop window in source pixels.
func (c *Clip) CropLeft() int { return c.left }

// Cropped reports whether a crop window is applied.
func (c *Clip) Cropped() bool { return c.cropped }

// VideoFilter returns the ffmpeg filter restricting frames to the crop window,
// or "" when the clip is not cropped.
func (c *Clip) VideoFilter() string {
	if !c.cropped {
		return ""
	}
	return fmt.Sprintf("crop=%d:%d:%d:0", c.width, c.height, c.left)
}

// FrameAt extracts the frame t seconds into the clip.
func (c *Clip) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	args := c.frameArgs(t)
	output, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("extract frame at %s: %w", formatSeconds(t), err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("extract frame at %s: ffmpeg produced no image", formatSeconds(t))
	}
	img, err := png.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("decode frame at %s: %w", formatSeconds(t), err)
	}
	return img, nil
}

func (c *Clip) frameArgs(t float64) []string {
	t = min(max(t, 0), max(c.duration-frameGuard, 0))
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(c.start + t),
		"-i", c.source,
		"-frames:v", "1",
	}
	if filter := c.VideoFilter(); filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args, "-f", "image2pipe", "-c:v", "png", "-")
}

// Crop returns a handle restricted to the columns [left, left+width) of this
// clip. Offsets compose when the clip is already cropped.
func (c *Clip) Crop(left, width int) (reframe.Clip, error) {
	if left < 0 || width <= 0 || left+width > c.width {
		return nil, fmt.Errorf("crop %d+%d outside %d px wide clip", left, width, c.width)
	}
	cropped := *c
	cropped.left = c.left + left
	cropped.width = width
	cropped.cropped = true
	return &cropped, nil
}
