package compose

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"reelcut/internal/captions"
	"reelcut/internal/logging"
	"reelcut/internal/reframe"
)

// FadeDuration is the fade-in and fade-out length of every caption overlay.
const FadeDuration = 0.1

// Overlay is one caption word image shown over the base clip.
type Overlay struct {
	Word      captions.ClipWord
	ImagePath string
	Start     float64
	End       float64
	FadeIn    float64
	FadeOut   float64
}

// Duration returns how long the overlay is visible.
func (o Overlay) Duration() float64 {
	return o.End - o.Start
}

// FadeOutStart returns the clip time at which the overlay starts fading out.
func (o Overlay) FadeOutStart() float64 {
	return max(o.Start, o.End-o.FadeOut)
}

// Composition is a base clip with caption overlays in draw order.
type Composition struct {
	Base     reframe.Clip
	Overlays []Overlay
	WorkDir  string
}

// Captioned reports whether any overlay survived rendering.
func (c Composition) Captioned() bool {
	return len(c.Overlays) > 0
}

// GlyphRenderer rasterizes a caption word into a frame-sized image.
type GlyphRenderer interface {
	RenderWord(word captions.ClipWord) (*image.NRGBA, error)
}

// Compositor turns caption words into overlays for one clip.
type Compositor struct {
	renderer GlyphRenderer
	workDir  string
	logger   *slog.Logger
}

// NewCompositor builds a Compositor that writes glyph images under workDir.
func NewCompositor(renderer GlyphRenderer, workDir string, logger *slog.Logger) *Compositor {
	return &Compositor{
		renderer: renderer,
		workDir:  workDir,
		logger:   logging.NewComponentLogger(logger, "compositor"),
	}
}

// Compose renders words and layers them over base. Words that fail to render
// are skipped; with no surviving words the base clip is returned alone.
func (c *Compositor) Compose(ctx context.Context, base reframe.Clip, words []captions.ClipWord) (Composition, error) {
	comp := Composition{Base: base, WorkDir: c.workDir}
	logger := logging.WithContext(ctx, c.logger)
	if len(words) == 0 {
		logger.Info("no caption words for clip; keeping base clip")
		return comp, nil
	}
	if c.renderer == nil {
		return comp, fmt.Errorf("compose: renderer not configured")
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return comp, fmt.Errorf("compose: ensure work dir: %w", err)
	}

	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return Composition{}, err
		}
		img, err := c.renderer.RenderWord(word)
		if err == nil && (img.Bounds().Dx() != base.Width() || img.Bounds().Dy() != base.Height()) {
			err = fmt.Errorf("glyph is %dx%d, frame is %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), base.Width(), base.Height())
		}
		if err != nil {
			logging.WarnWithContext(logger, "caption word render failed; skipping word", "caption_render_failed",
				logging.String("word", word.Text),
				logging.Error(err),
				logging.String(logging.FieldImpact, "word is missing from the captions"),
			)
			continue
		}
		path := filepath.Join(c.workDir, fmt.Sprintf("word_%04d.png", i))
		if err := writePNG(path, img); err != nil {
			return Composition{}, fmt.Errorf("compose: %w", err)
		}
		comp.Overlays = append(comp.Overlays, Overlay{
			Word:      word,
			ImagePath: path,
			Start:     word.Start,
			End:       word.End,
			FadeIn:    FadeDuration,
			FadeOut:   FadeDuration,
		})
	}

	logger.Debug("caption overlays rendered",
		logging.Int("words", len(words)),
		logging.Int("overlays", len(comp.Overlays)),
	)
	return comp, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
