package captions

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Weight selects the font family used for a style.
type Weight string

const (
	WeightBold    Weight = "bold"
	WeightRegular Weight = "regular"
)

// Style is a named caption look.
type Style struct {
	Key    string
	Name   string
	Color  color.RGBA
	Weight Weight
}

// DefaultStyleKey is used when a requested style is unknown.
const DefaultStyleKey = "clean_white"

// AccentColor paints highlighted words regardless of style.
var AccentColor = color.RGBA{R: 255, G: 255, B: 0, A: 255}

var styles = []Style{
	{Key: "clean_white", Name: "Clean White (No Stroke)", Color: color.RGBA{255, 255, 255, 255}, Weight: WeightBold},
	{Key: "bright_yellow", Name: "Bright Yellow", Color: color.RGBA{255, 255, 0, 255}, Weight: WeightBold},
	{Key: "neon_cyan", Name: "Neon Cyan", Color: color.RGBA{0, 255, 255, 255}, Weight: WeightRegular},
	{Key: "hot_pink", Name: "Hot Pink", Color: color.RGBA{255, 20, 147, 255}, Weight: WeightBold},
	{Key: "lime_green", Name: "Lime Green", Color: color.RGBA{50, 205, 50, 255}, Weight: WeightRegular},
	{Key: "orange_fire", Name: "Orange Fire", Color: color.RGBA{255, 165, 0, 255}, Weight: WeightBold},
	{Key: "electric_blue", Name: "Electric Blue", Color: color.RGBA{30, 144, 255, 255}, Weight: WeightRegular},
	{Key: "purple_pop", Name: "Purple Pop", Color: color.RGBA{138, 43, 226, 255}, Weight: WeightBold},
}

// Styles returns every built-in style in menu order.
func Styles() []Style {
	return append([]Style(nil), styles...)
}

// LookupStyle returns the style for key. Unknown keys yield the default style
// and false.
func LookupStyle(key string) (Style, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, s := range styles {
		if s.Key == key {
			return s, true
		}
	}
	return styles[0], false
}

// ResolveStyle accepts a style key or its 1-based menu number. Unknown keys
// and out-of-range numbers yield the DefaultStyleKey style with ok false.
func ResolveStyle(value string) (style Style, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return styles[0], true
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n < 1 || n > len(styles) {
			return styles[0], false
		}
		return styles[n-1], true
	}
	return LookupStyle(value)
}

// Hex formats the style color as #RRGGBB.
func (s Style) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", s.Color.R, s.Color.G, s.Color.B)
}
