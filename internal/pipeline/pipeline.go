package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelcut/internal/captions"
	"reelcut/internal/compose"
	"reelcut/internal/config"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/media/ffmpeg"
	"reelcut/internal/media/ffprobe"
	"reelcut/internal/notifications"
	"reelcut/internal/reframe"
	"reelcut/internal/selection"
	"reelcut/internal/services"
	"reelcut/internal/staging"
	"reelcut/internal/transcript"
)

// LockFileName is created inside the output directory while a run is active.
const LockFileName = ".reelcut.lock"

// StaleWorkDirAge is the age after which work directories left by earlier
// runs are swept at the start of a run.
const StaleWorkDirAge = 24 * time.Hour

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Transcriber produces a WhisperX-style JSON transcript for source inside
// workDir and returns its path. languageHint comes from the source's audio
// stream tags and may be empty.
type Transcriber interface {
	Transcribe(ctx context.Context, source, workDir, languageHint string) (string, error)
}

// Encoder writes a composition to output and returns the encoded size.
type Encoder interface {
	Encode(ctx context.Context, comp compose.Composition, output string) (int64, error)
}

// Dependencies are the collaborators a Processor drives. Probe, Detector and
// Encoder are required; the rest may be nil.
type Dependencies struct {
	Probe ProbeFunc
	// Detector is owned by the caller, which closes it after the batch.
	Detector    reframe.Detector
	Transcriber Transcriber
	Ranker      selection.Completer
	// FrameRunner overrides how clip frames are extracted.
	FrameRunner ffmpeg.CommandRunner
	Encoder     Encoder
	Fonts       captions.FontSet
	Store       *history.Store
	Notifier    notifications.Service
}

// Request describes one processing run. Zero values fall back to config.
type Request struct {
	Source         string
	TranscriptPath string
	ManifestPath   string
	Clips          int
	MinSeconds     float64
	MaxSeconds     float64
	Style          string
	NoCaptions     bool
}

// Output is the outcome of a single clip.
type Output struct {
	Index      int
	Spec       selection.Spec
	Path       string
	SizeBytes  int64
	Window     reframe.Window
	Center     int
	Detections int
	Words      int
	Status     history.Status
	Err        error
}

// Result summarizes a run.
type Result struct {
	RunID   string
	Title   string
	Method  selection.Method
	Outputs []Output
}

// Succeeded counts clips that were written to the output directory.
func (r *Result) Succeeded() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, out := range r.Outputs {
		if out.Status == history.StatusCompleted {
			n++
		}
	}
	return n
}

// Processor runs the clip pipeline.
type Processor struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor builds a Processor from cfg and deps.
func NewProcessor(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Processor, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if deps.Probe == nil {
		return nil, errors.New("pipeline: probe is required")
	}
	if deps.Detector == nil {
		return nil, errors.New("pipeline: face detector is required")
	}
	if deps.Encoder == nil {
		return nil, errors.New("pipeline: encoder is required")
	}
	return &Processor{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    time.Now,
	}, nil
}

// runState carries everything the per-clip loop needs.
type runState struct {
	id       string
	source   string
	dir      string
	media    sourceMedia
	style    captions.Style
	captions bool
	words    []captions.Word
	hl       captions.Highlighter
	tracker  *reframe.Tracker
}

type sourceMedia struct {
	width    int
	height   int
	duration float64
	title    string
	language string
}

// Process runs the pipeline for req. Per-clip failures are reported in the
// result; an error is returned when the run could not start or no clip
// succeeded.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "process", "source path is required", nil)
	}
	if info, err := os.Stat(source); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "stat source", source, err)
	} else if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "stat source", source+" is a directory", nil)
	}

	styleKey := strings.TrimSpace(req.Style)
	if styleKey == "" {
		styleKey = p.cfg.Captions.Style
	}
	style, known := captions.ResolveStyle(styleKey)
	if !known {
		logging.WarnWithContext(p.logger, "unknown caption style; using "+captions.DefaultStyleKey, "caption_style_fallback",
			logging.String("style", styleKey),
			logging.String(logging.FieldErrorHint, "run `reelcut styles` for valid keys"),
			logging.String(logging.FieldImpact, "captions use the default style"),
		)
	}

	unlock, err := p.lockOutput()
	if err != nil {
		return nil, err
	}
	defer unlock()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	staging.Sweep(ctx, p.cfg.Paths.TempDir, StaleWorkDirAge, nil, logger)
	runDir := filepath.Join(p.cfg.Paths.TempDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "create run dir", runDir, err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			logging.WarnWithContext(logger, "failed to remove run directory", "run_cleanup_failed",
				logging.String("path", runDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scratch files remain on disk"),
			)
		}
	}()

	p.beginRun(ctx, history.Run{ID: runID, SourcePath: source, Style: style.Key, StartedAt: p.now()})
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", source),
		logging.String("style", style.Key),
	)

	result := &Result{RunID: runID}
	media, err := p.probe(services.WithStage(ctx, "probe"), source)
	if err != nil {
		p.finishRun(ctx, source, result, history.StatusFailed, err)
		return result, err
	}
	result.Title = media.title

	tr, err := p.loadTranscript(services.WithStage(ctx, "transcript"), req, source, media.language, runDir)
	if err != nil {
		p.finishRun(ctx, source, result, history.StatusFailed, err)
		return result, err
	}

	plan, err := p.selectClips(services.WithStage(ctx, "select"), req, media, tr)
	if err != nil {
		p.finishRun(ctx, source, result, history.StatusFailed, err)
		return result, err
	}
	result.Method = plan.Method
	if len(plan.Specs) == 0 {
		err := services.Wrap(services.ErrValidation, "select", "choose clips", "no clips fit the source", nil)
		p.finishRun(ctx, source, result, history.StatusFailed, err)
		return result, err
	}
	p.updateRunSelection(ctx, runID, media.title, len(plan.Specs))
	logger.Info("clips selected",
		logging.String("method", string(plan.Method)),
		logging.Int("clips", len(plan.Specs)),
	)

	state := runState{
		id:       runID,
		source:   source,
		dir:      runDir,
		media:    media,
		style:    style,
		captions: p.cfg.Captions.Enabled && !req.NoCaptions,
		words:    tr.Words(),
		hl:       captions.NewHighlighter(p.cfg.Captions.HighlightKeywords),
		tracker: reframe.NewTracker(
			reframe.NewLocator(p.deps.Detector, p.cfg.Tracking.DetectScale, p.logger),
			p.logger,
		),
	}

	var firstErr error
	for i, spec := range plan.Specs {
		if err := ctx.Err(); err != nil {
			p.finishRun(ctx, source, result, history.StatusFailed, err)
			return result, err
		}
		out := p.processClip(ctx, &state, i+1, spec)
		result.Outputs = append(result.Outputs, out)
		p.recordClip(ctx, runID, out)
		if out.Err != nil && firstErr == nil {
			firstErr = out.Err
		}
	}

	succeeded := result.Succeeded()
	status := history.StatusCompleted
	switch {
	case succeeded == 0:
		status = history.StatusFailed
	case succeeded < len(result.Outputs):
		status = history.StatusPartial
	}
	p.finishRun(ctx, source, result, status, firstErr)
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(status)),
		logging.Int("succeeded", succeeded),
		logging.Int("clips", len(result.Outputs)),
	)

	if succeeded == 0 {
		return result, fmt.Errorf("no clips produced: %w", firstErr)
	}
	return result, nil
}

func (p *Processor) lockOutput() (func(), error) {
	dir := p.cfg.Paths.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "create output dir", dir, err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock output dir", dir, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock output dir",
			"another reelcut run is writing to "+dir, nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}, nil
}

func (p *Processor) probe(ctx context.Context, source string) (sourceMedia, error) {
	probe, err := p.deps.Probe(ctx, source)
	if err != nil {
		return sourceMedia{}, services.Wrap(services.ErrExternalTool, "probe", "inspect source", source, err)
	}
	width, height, ok := probe.VideoDimensions()
	if !ok {
		return sourceMedia{}, services.Wrap(services.ErrValidation, "probe", "inspect source", "no video stream", nil)
	}
	duration := probe.DurationSeconds()
	if !(duration > 0) {
		return sourceMedia{}, services.Wrap(services.ErrValidation, "probe", "inspect source", "unknown duration", nil)
	}
	title := probe.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	logging.WithContext(ctx, p.logger).Info("source probed",
		logging.Int("width", width),
		logging.Int("height", height),
		logging.Float64("duration", duration),
		logging.Bool("audio", probe.HasAudio()),
		logging.String("language", probe.AudioLanguage()),
	)
	return sourceMedia{width: width, height: height, duration: duration, title: title, language: probe.AudioLanguage()}, nil
}

// loadTranscript returns the user transcript when given, else asks the
// transcriber. A failed transcription degrades to no transcript.
func (p *Processor) loadTranscript(ctx context.Context, req Request, source, languageHint, runDir string) (*transcript.Transcript, error) {
	logger := logging.WithContext(ctx, p.logger)
	if path := strings.TrimSpace(req.TranscriptPath); path != "" {
		tr, err := transcript.Load(path)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "load transcript", path, err)
		}
		return tr, nil
	}
	if p.deps.Transcriber == nil {
		logger.Info("no transcriber configured; continuing without transcript")
		return nil, nil
	}
	path, err := p.deps.Transcriber.Transcribe(ctx, source, filepath.Join(runDir, "transcript"), languageHint)
	if err == nil {
		var tr *transcript.Transcript
		if tr, err = transcript.Load(path); err == nil {
			logger.Info("transcript ready",
				logging.Int("segments", len(tr.Segments)),
				logging.Int("words", len(tr.Words())),
			)
			return tr, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	logging.WarnWithContext(logger, "transcription failed; continuing without transcript", "transcription_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "clips are chosen at random and carry no captions"),
	)
	return nil, nil
}

func (p *Processor) selectClips(ctx context.Context, req Request, media sourceMedia, tr *transcript.Transcript) (selection.Plan, error) {
	selReq := selection.Request{
		Duration:   media.duration,
		Clips:      req.Clips,
		MinSeconds: req.MinSeconds,
		MaxSeconds: req.MaxSeconds,
	}
	if selReq.Clips <= 0 {
		selReq.Clips = p.cfg.Selection.Clips
	}
	if selReq.MinSeconds <= 0 {
		selReq.MinSeconds = float64(p.cfg.Selection.MinSeconds)
	}
	if selReq.MaxSeconds <= 0 {
		selReq.MaxSeconds = float64(p.cfg.Selection.MaxSeconds)
	}
	if selReq.MaxSeconds < selReq.MinSeconds {
		return selection.Plan{}, services.Wrap(services.ErrValidation, "select", "check bounds",
			fmt.Sprintf("max %.0fs is shorter than min %.0fs", selReq.MaxSeconds, selReq.MinSeconds), nil)
	}

	var ranker *selection.LLMSelector
	if p.cfg.Selection.UseLLM && p.deps.Ranker != nil {
		ranker = selection.NewLLMSelector(p.deps.Ranker, p.logger)
	}
	selector := selection.NewSelector(ranker, p.cfg.Selection.RandomSeed, p.logger)
	return selector.Select(ctx, selection.Input{
		Request:      selReq,
		Transcript:   tr,
		ManifestPath: strings.TrimSpace(req.ManifestPath),
	})
}

// Track runs face tracking over [start, end) of source without encoding.
func (p *Processor) Track(ctx context.Context, source string, start, end float64) (reframe.Result, error) {
	if !(end > start) {
		return reframe.Result{}, services.Wrap(services.ErrValidation, "track", "check bounds", "end must be greater than start", nil)
	}
	media, err := p.probe(services.WithStage(ctx, "probe"), source)
	if err != nil {
		return reframe.Result{}, err
	}
	if start >= media.duration {
		return reframe.Result{}, services.Wrap(services.ErrValidation, "track", "check bounds",
			fmt.Sprintf("start %.2fs is past the end of the source (%.2fs)", start, media.duration), nil)
	}
	clip, err := p.newClip(source, media, start, min(end, media.duration)-start)
	if err != nil {
		return reframe.Result{}, err
	}
	tracker := reframe.NewTracker(reframe.NewLocator(p.deps.Detector, p.cfg.Tracking.DetectScale, p.logger), p.logger)
	result, err := tracker.Track(services.WithStage(ctx, "track"), clip)
	if err != nil {
		return reframe.Result{}, classifyTrackError(err)
	}
	return result, nil
}

func (p *Processor) newClip(source string, media sourceMedia, start, duration float64) (*ffmpeg.Clip, error) {
	clip, err := ffmpeg.NewClip(ffmpeg.ClipOptions{
		Binary:   p.cfg.FFmpegBinary(),
		Source:   source,
		Start:    start,
		Duration: duration,
		Width:    media.width,
		Height:   media.height,
		Runner:   p.deps.FrameRunner,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "clip", "open clip", "", err)
	}
	return clip, nil
}

func classifyTrackError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, reframe.ErrInvalidClip) {
		return services.Wrap(services.ErrValidation, "track", "track faces", "", err)
	}
	return services.Wrap(services.ErrTransient, "track", "track faces", "", err)
}

func (p *Processor) beginRun(ctx context.Context, run history.Run) {
	if p.deps.Store == nil {
		return
	}
	if err := p.deps.Store.BeginRun(ctx, run); err != nil {
		p.historyWarning(ctx, "begin run", err)
	}
}

func (p *Processor) updateRunSelection(ctx context.Context, id, title string, requested int) {
	if p.deps.Store == nil {
		return
	}
	if err := p.deps.Store.UpdateRunSelection(ctx, id, title, requested); err != nil {
		p.historyWarning(ctx, "update run", err)
	}
}

func (p *Processor) finishRun(ctx context.Context, source string, result *Result, status history.Status, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	succeeded := result.Succeeded()
	if p.deps.Store != nil {
		if err := p.deps.Store.FinishRun(context.WithoutCancel(ctx), result.RunID, status, succeeded, msg); err != nil {
			p.historyWarning(ctx, "finish run", err)
		}
	}
	p.notify(ctx, source, result, status, msg)
}

// notify publishes the run outcome. Interrupted runs are not announced.
func (p *Processor) notify(ctx context.Context, source string, result *Result, status history.Status, reason string) {
	if p.deps.Notifier == nil || errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	title := result.Title
	if title == "" {
		title = filepath.Base(source)
	}
	event := notifications.EventRunCompleted
	payload := notifications.Payload{
		"title":      title,
		"succeeded":  result.Succeeded(),
		"clips":      len(result.Outputs),
		"output_dir": p.cfg.Paths.OutputDir,
	}
	if status == history.StatusFailed {
		event = notifications.EventRunFailed
		payload = notifications.Payload{"title": title, "error": reason}
	}
	if err := p.deps.Notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run outcome was not pushed"),
		)
	}
}

func (p *Processor) recordClip(ctx context.Context, runID string, out Output) {
	if p.deps.Store == nil {
		return
	}
	clip := &history.Clip{
		RunID:        runID,
		Index:        out.Index,
		Title:        out.Spec.Title,
		Score:        out.Spec.Points(),
		HookType:     out.Spec.HookType,
		Start:        out.Spec.Start,
		End:          out.Spec.End,
		Cropped:      out.Window.Cropped,
		CropLeft:     out.Window.Left,
		CropWidth:    out.Window.Width,
		CenterX:      out.Center,
		Detections:   out.Detections,
		CaptionWords: out.Words,
		OutputPath:   out.Path,
		SizeBytes:    out.SizeBytes,
		Status:       out.Status,
	}
	if out.Err != nil {
		clip.ErrorMessage = out.Err.Error()
	}
	if err := p.deps.Store.RecordClip(context.WithoutCancel(ctx), clip); err != nil {
		p.historyWarning(ctx, "record clip", err)
	}
}

func (p *Processor) historyWarning(ctx context.Context, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "history update failed", "history_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldImpact, "run history is incomplete"),
	)
}
