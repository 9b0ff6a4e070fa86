package captions

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"reelcut/internal/logging"
)

// DefaultBoldFonts lists bold font files tried in order.
var DefaultBoldFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/System/Library/Fonts/Arial.ttf",
	"/Windows/Fonts/arialbd.ttf",
	"/Windows/Fonts/calibrib.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
}

// DefaultRegularFonts lists regular font files tried in order.
var DefaultRegularFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/Windows/Fonts/arial.ttf",
	"/Windows/Fonts/calibri.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
}

// FontCandidates are the ranked font locations for each weight.
type FontCandidates struct {
	Bold    []string
	Regular []string
}

// DefaultFontCandidates returns the built-in candidate lists.
func DefaultFontCandidates() FontCandidates {
	return FontCandidates{
		Bold:    append([]string(nil), DefaultBoldFonts...),
		Regular: append([]string(nil), DefaultRegularFonts...),
	}
}

// ResolvedFont is a parsed font and where it came from. Source is "builtin"
// for the embedded fallback.
type ResolvedFont struct {
	Font   *opentype.Font
	Source string
}

// FontSet holds one resolved font per weight.
type FontSet struct {
	Bold    ResolvedFont
	Regular ResolvedFont
}

// ResolveFonts picks the first candidate per weight that exists and parses,
// falling back to the embedded Go fonts.
func ResolveFonts(candidates FontCandidates, logger *slog.Logger) FontSet {
	logger = logging.NewComponentLogger(logger, "fonts")
	if len(candidates.Bold) == 0 {
		candidates.Bold = DefaultBoldFonts
	}
	if len(candidates.Regular) == 0 {
		candidates.Regular = DefaultRegularFonts
	}
	set := FontSet{
		Bold:    resolveWeight(candidates.Bold, gobold.TTF, logger),
		Regular: resolveWeight(candidates.Regular, goregular.TTF, logger),
	}
	logger.Debug("caption fonts resolved",
		logging.String("bold", set.Bold.Source),
		logging.String("regular", set.Regular.Source),
	)
	return set
}

func resolveWeight(paths []string, fallback []byte, logger *slog.Logger) ResolvedFont {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := parseFont(data)
		if err != nil {
			logger.Debug("font candidate unusable", logging.String("path", path), logging.Error(err))
			continue
		}
		return ResolvedFont{Font: f, Source: path}
	}
	f, err := opentype.Parse(fallback)
	if err != nil {
		logger.Error("embedded font unusable", logging.Error(err))
		return ResolvedFont{Source: "none"}
	}
	return ResolvedFont{Font: f, Source: "builtin"}
}

// parseFont reads a single font or the first face of a TrueType collection.
func parseFont(data []byte) (*opentype.Font, error) {
	if bytes.HasPrefix(data, []byte("ttcf")) {
		collection, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return collection.Font(0)
	}
	return opentype.Parse(data)
}

// Face returns a face for weight at size pixels. The caller closes it.
func (s FontSet) Face(weight Weight, size float64) (font.Face, error) {
	resolved := s.Regular
	if weight == WeightBold {
		resolved = s.Bold
	}
	if resolved.Font == nil {
		return nil, fmt.Errorf("no %s font resolved", weight)
	}
	face, err := opentype.NewFace(resolved.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s face: %w", weight, err)
	}
	return face, nil
}
