package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"reelcut/internal/captions"
	"reelcut/internal/compose"
	"reelcut/internal/fileutil"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/selection"
	"reelcut/internal/services"
	"reelcut/internal/textutil"
)

// processClip produces one output clip. Errors are captured on the returned
// Output rather than aborting the batch.
func (p *Processor) processClip(ctx context.Context, state *runState, index int, spec selection.Spec) Output {
	ctx = services.WithClipIndex(ctx, index)
	logger := logging.WithContext(ctx, p.logger)
	out := Output{Index: index, Spec: spec}

	fail := func(err error) Output {
		out.Err = err
		out.Status = services.FailureStatus(err)
		logging.ErrorWithContext(logger, "clip failed", "clip_failed",
			logging.String("title", spec.Title),
			logging.String("failed_stage", services.StageOf(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "clip skipped; remaining clips continue"),
		)
		return out
	}

	duration := min(spec.End, state.media.duration) - spec.Start
	if !(duration > 0) {
		return fail(services.Wrap(services.ErrValidation, "clip", "check bounds",
			fmt.Sprintf("clip %.2f-%.2f lies outside the source", spec.Start, spec.End), nil))
	}
	logger.Info("clip started",
		logging.String(logging.FieldEventType, "clip_start"),
		logging.String("title", spec.Title),
		logging.Float64("start", spec.Start),
		logging.Float64("duration", duration),
		logging.Int("score", spec.Points()),
	)

	clip, err := p.newClip(state.source, state.media, spec.Start, duration)
	if err != nil {
		return fail(err)
	}

	cropped, track, err := state.tracker.TrackAndCrop(services.WithStage(ctx, "track"), clip)
	if err != nil {
		return fail(classifyTrackError(err))
	}
	out.Window = track.Window
	out.Center = track.Center
	out.Detections = track.Detections()

	var words []captions.ClipWord
	if state.captions {
		words = captions.BuildTimeline(state.words, spec.Start, duration, state.hl)
	}

	clipDir := filepath.Join(state.dir, fmt.Sprintf("clip_%02d", index))
	renderer := captions.NewRenderer(p.deps.Fonts, state.style, cropped.Width(), cropped.Height())
	compositor := compose.NewCompositor(renderer, filepath.Join(clipDir, "glyphs"), p.logger)
	comp, err := compositor.Compose(services.WithStage(ctx, "compose"), cropped, words)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fail(err)
		}
		return fail(services.Wrap(services.ErrTransient, "compose", "render captions", "", err))
	}
	out.Words = len(comp.Overlays)

	if err := os.MkdirAll(clipDir, 0o755); err != nil {
		return fail(services.Wrap(services.ErrTransient, "encode", "create clip dir", clipDir, err))
	}
	name := textutil.ClipFileName(index, spec.Points(), state.source)
	staged := filepath.Join(clipDir, name)
	size, err := p.deps.Encoder.Encode(services.WithStage(ctx, "encode"), comp, staged)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}
		return fail(services.Wrap(services.ErrExternalTool, "encode", "encode clip", name, err))
	}

	final := filepath.Join(p.cfg.Paths.OutputDir, name)
	if err := fileutil.MoveFile(staged, final); err != nil {
		return fail(services.Wrap(services.ErrTransient, "output", "move clip", final, err))
	}

	out.Path = final
	out.SizeBytes = size
	out.Status = history.StatusCompleted
	logger.Info("clip complete",
		logging.String(logging.FieldEventType, "clip_complete"),
		logging.String("output", final),
		logging.Int64("size_bytes", size),
		logging.String("window", track.Window.String()),
		logging.Int("caption_words", out.Words),
	)
	return out
}
