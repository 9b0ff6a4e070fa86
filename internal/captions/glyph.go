package captions

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// BaseFontSize returns the caption font size in pixels for a w x h frame.
func BaseFontSize(w, h int) int {
	return max(48, int(float64(min(w, h))*0.06))
}

// Layout returns the top-left corner of a textW x textH box centered
// horizontally and anchored above the bottom safe margin, never higher than
// 70% of the frame height.
func Layout(frameW, frameH, textW, textH int) image.Point {
	x := (frameW - textW) / 2
	y := frameH - textH - int(float64(frameH)*0.15)
	if float64(y) < float64(frameH)*0.7 {
		y = int(float64(frameH) * 0.7)
	}
	return image.Point{X: x, Y: y}
}

// Renderer rasterizes caption words in one style at one frame size.
type Renderer struct {
	fonts  FontSet
	style  Style
	width  int
	height int
	size   float64
}

// NewRenderer builds a Renderer for frames of w x h pixels.
func NewRenderer(fonts FontSet, style Style, w, h int) *Renderer {
	return &Renderer{fonts: fonts, style: style, width: w, height: h, size: float64(BaseFontSize(w, h))}
}

// Color returns the paint color for a word.
func (r *Renderer) Color(word ClipWord) color.RGBA {
	if word.Highlighted {
		return AccentColor
	}
	return r.style.Color
}

// RenderWord draws word onto a transparent frame-sized image.
func (r *Renderer) RenderWord(word ClipWord) (*image.NRGBA, error) {
	if r.width <= 0 || r.height <= 0 {
		return nil, fmt.Errorf("render %q: invalid frame %dx%d", word.Text, r.width, r.height)
	}
	face, err := r.fonts.Face(r.style.Weight, r.size)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", word.Text, err)
	}
	defer face.Close()

	bounds, _ := font.BoundString(face, word.Text)
	textW := (bounds.Max.X - bounds.Min.X).Ceil()
	textH := (bounds.Max.Y - bounds.Min.Y).Ceil()
	origin := Layout(r.width, r.height, textW, textH)

	img := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.Color(word)),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(origin.X) - bounds.Min.X,
			Y: fixed.I(origin.Y) - bounds.Min.Y,
		},
	}
	drawer.DrawString(word.Text)
	return img, nil
}
