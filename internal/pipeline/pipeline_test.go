package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"reelcut/internal/captions"
	"reelcut/internal/compose"
	"reelcut/internal/config"
	"reelcut/internal/history"
	"reelcut/internal/logging"
	"reelcut/internal/media/ffprobe"
	"reelcut/internal/notifications"
	"reelcut/internal/pipeline"
	"reelcut/internal/reframe"
	"reelcut/internal/selection"
	"reelcut/internal/services"
	"reelcut/internal/testsupport"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30/1"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2, "tags": {"language": "eng"}}
  ],
  "format": {"duration": "120.0", "size": "1024", "tags": {"title": "Conference Talk"}}
}`

const transcriptJSON = `{
  "language": "en",
  "segments": [
    {"text": "welcome to the show", "start": 0, "end": 8, "words": [
      {"word": "welcome", "start": 0.5, "end": 1.0},
      {"word": "to", "start": 1.0, "end": 1.3},
      {"word": "the", "start": 1.3, "end": 1.6},
      {"word": "show", "start": 1.6, "end": 2.2}
    ]},
    {"text": "money talks", "start": 10, "end": 18, "words": [
      {"word": "money", "start": 10.5, "end": 11.0},
      {"word": "talks", "start": 11.0, "end": 11.6}
    ]},
    {"text": "see you soon", "start": 20, "end": 28, "words": [
      {"word": "see", "start": 20.2, "end": 20.6},
      {"word": "you", "start": 20.6, "end": 21.0},
      {"word": "soon", "start": 21.0, "end": 21.5}
    ]}
  ]
}`

type fakeEncoder struct {
	mu     sync.Mutex
	calls  []compose.Composition
	dirs   []string
	failOn map[int]bool
}

func (f *fakeEncoder) Encode(_ context.Context, comp compose.Composition, output string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, comp)
	f.dirs = append(f.dirs, filepath.Dir(output))
	if f.failOn[len(f.calls)] {
		return 0, errors.New("ffmpeg: exit status 1: encoder exploded")
	}
	data := []byte(fmt.Sprintf("clip %d", len(f.calls)))
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return errors.New("ntfy unreachable")
}

type failingTranscriber struct {
	calls int
	hint  string
}

func (f *failingTranscriber) Transcribe(_ context.Context, _, _, languageHint string) (string, error) {
	f.calls++
	f.hint = languageHint
	return "", errors.New("uvx: executable file not found in $PATH")
}

type fixture struct {
	cfg        *config.Config
	source     string
	store      *history.Store
	encoder    *fakeEncoder
	deps       pipeline.Dependencies
	transcript string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ws := testsupport.NewWorkspace(t, testsupport.WithSelection(2, 5, 10))
	cfg := ws.Config

	source := ws.WriteSource("My Talk.mp4", 2048)
	transcriptPath := ws.Path("talk.json")
	if err := os.WriteFile(transcriptPath, []byte(transcriptJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	framePNG := testsupport.SolidFrame(t, 1920, 1080, color.RGBA{40, 40, 40, 255})

	probe, err := ffprobe.Parse([]byte(probeJSON))
	if err != nil {
		t.Fatalf("parse ffprobe fixture: %v", err)
	}

	store := ws.History()
	encoder := &fakeEncoder{}
	return &fixture{
		cfg:        cfg,
		source:     source,
		store:      store,
		encoder:    encoder,
		transcript: transcriptPath,
		deps: pipeline.Dependencies{
			Probe: func(context.Context, string) (ffprobe.Result, error) { return probe, nil },
			// Detection runs on the half-scale frame, so 700 maps to 1400 in the source.
			Detector: reframe.DetectorFunc(func(context.Context, image.Image) ([]reframe.Observation, error) {
				return []reframe.Observation{{CenterX: 700, CenterY: 270, Width: 80, Height: 80, Confidence: 0.9}}, nil
			}),
			FrameRunner: func(context.Context, string, ...string) ([]byte, error) { return framePNG, nil },
			Encoder:     encoder,
			Fonts:       captions.ResolveFonts(captions.FontCandidates{Bold: []string{"/nonexistent/bold.ttf"}, Regular: []string{"/nonexistent/regular.ttf"}}, logging.NewNop()),
			Store:       store,
		},
	}
}

func (f *fixture) processor(t *testing.T) *pipeline.Processor {
	t.Helper()
	p, err := pipeline.NewProcessor(f.cfg, f.deps, logging.NewNop())
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func TestProcessProducesCroppedCaptionedClips(t *testing.T) {
	f := newFixture(t)

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{
		Source:         f.source,
		TranscriptPath: f.transcript,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Title != "Conference Talk" {
		t.Fatalf("title = %q", result.Title)
	}
	if result.Method != selection.MethodSegments {
		t.Fatalf("method = %q, want segments", result.Method)
	}
	if len(result.Outputs) != 2 || result.Succeeded() != 2 {
		t.Fatalf("outputs = %d succeeded = %d, want 2/2", len(result.Outputs), result.Succeeded())
	}

	for i, out := range result.Outputs {
		want := filepath.Join(f.cfg.Paths.OutputDir, fmt.Sprintf("clip_%d_50pts_my_talk.mp4", i+1))
		if out.Path != want {
			t.Fatalf("output %d path = %q, want %q", i, out.Path, want)
		}
		if _, err := os.Stat(out.Path); err != nil {
			t.Fatalf("output %d missing: %v", i, err)
		}
		if !out.Window.Cropped || out.Window.Width != 606 || out.Window.Height != 1080 {
			t.Fatalf("output %d window = %+v", i, out.Window)
		}
		if out.Center != 1400 || out.Window.Left != 1097 {
			t.Fatalf("output %d center = %d left = %d, want 1400/1097", i, out.Center, out.Window.Left)
		}
		if out.Words == 0 {
			t.Fatalf("output %d has no caption words", i)
		}
	}

	for _, comp := range f.encoder.calls {
		if comp.Base.Width() != 606 || comp.Base.Height() != 1080 {
			t.Fatalf("encoded base %dx%d, want 606x1080", comp.Base.Width(), comp.Base.Height())
		}
		if !comp.Captioned() {
			t.Fatal("expected caption overlays")
		}
	}

	if _, err := os.Stat(filepath.Join(f.cfg.Paths.TempDir, result.RunID)); !os.IsNotExist(err) {
		t.Fatalf("run dir should be removed, stat err=%v", err)
	}

	run, err := f.store.GetRun(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: run=%v err=%v", run, err)
	}
	if run.Status != history.StatusCompleted || run.ClipsSucceeded != 2 || run.ClipsRequested != 2 {
		t.Fatalf("run = %+v", run)
	}
	if run.Title != "Conference Talk" || run.Style != "clean_white" {
		t.Fatalf("run title/style = %q/%q", run.Title, run.Style)
	}
	clips, err := f.store.ClipsForRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("ClipsForRun: %v", err)
	}
	if len(clips) != 2 || clips[0].CropWidth != 606 || clips[0].Status != history.StatusCompleted {
		t.Fatalf("clips = %+v", clips)
	}
}

func TestProcessWithoutCaptions(t *testing.T) {
	f := newFixture(t)

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{
		Source:         f.source,
		TranscriptPath: f.transcript,
		NoCaptions:     true,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, out := range result.Outputs {
		if out.Words != 0 {
			t.Fatalf("expected no caption words, got %d", out.Words)
		}
	}
	for _, comp := range f.encoder.calls {
		if comp.Captioned() {
			t.Fatal("composition should carry no overlays")
		}
	}
}

func TestProcessStagesEachClipInItsOwnDirectory(t *testing.T) {
	f := newFixture(t)

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{
		Source:         f.source,
		TranscriptPath: f.transcript,
		NoCaptions:     true,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Succeeded() != 2 {
		t.Fatalf("succeeded = %d, want 2", result.Succeeded())
	}
	for i, dir := range f.encoder.dirs {
		if want := fmt.Sprintf("clip_%02d", i+1); filepath.Base(dir) != want {
			t.Fatalf("staging dir %d = %q, want %q", i, dir, want)
		}
	}
}

func TestProcessFallsBackToDefaultStyle(t *testing.T) {
	f := newFixture(t)
	var logs strings.Builder
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &logs})
	if err != nil {
		t.Fatal(err)
	}
	p, err := pipeline.NewProcessor(f.cfg, f.deps, logger)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	for _, style := range []string{"glitter", "9", "0"} {
		logs.Reset()
		result, err := p.Process(context.Background(), pipeline.Request{
			Source:         f.source,
			TranscriptPath: f.transcript,
			Style:          style,
		})
		if err != nil {
			t.Fatalf("style %q: Process: %v", style, err)
		}
		if result.Succeeded() != 2 {
			t.Fatalf("style %q: succeeded = %d, want 2", style, result.Succeeded())
		}
		if !strings.Contains(logs.String(), "caption_style_fallback") {
			t.Fatalf("style %q: missing fallback warning in %s", style, logs.String())
		}
	}
}

func TestProcessPublishesRunOutcome(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	f.deps.Notifier = notifier

	if _, err := f.processor(t).Process(context.Background(), pipeline.Request{Source: f.source, TranscriptPath: f.transcript}); err != nil {
		t.Fatalf("Process should not fail when the notifier does: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventRunCompleted {
		t.Fatalf("events = %v", notifier.events)
	}
	payload := notifier.payloads[0]
	if payload["title"] != "Conference Talk" || payload["succeeded"] != 2 || payload["clips"] != 2 {
		t.Fatalf("payload = %v", payload)
	}

	f.encoder.failOn = map[int]bool{3: true, 4: true}
	if _, err := f.processor(t).Process(context.Background(), pipeline.Request{Source: f.source, TranscriptPath: f.transcript}); err == nil {
		t.Fatal("expected failure when every clip fails")
	}
	if len(notifier.events) != 2 || notifier.events[1] != notifications.EventRunFailed {
		t.Fatalf("events = %v", notifier.events)
	}
	if reason, _ := notifier.payloads[1]["error"].(string); !strings.Contains(reason, "encoder exploded") {
		t.Fatalf("failure payload = %v", notifier.payloads[1])
	}
}

func TestProcessSweepsStaleWorkDirs(t *testing.T) {
	f := newFixture(t)
	stale := filepath.Join(f.cfg.Paths.TempDir, "abandoned-run")
	fresh := filepath.Join(f.cfg.Paths.TempDir, "transcribe-123")
	for _, dir := range []string{stale, fresh} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * pipeline.StaleWorkDirAge)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := f.processor(t).Process(context.Background(), pipeline.Request{Source: f.source, TranscriptPath: f.transcript}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale work dir should be swept, stat err=%v", err)
	}
	entries, err := os.ReadDir(f.cfg.Paths.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "transcribe-123" {
		t.Fatalf("temp dir should hold only the fresh dir, got %v", entries)
	}
}

func TestProcessContinuesAfterClipFailure(t *testing.T) {
	f := newFixture(t)
	f.encoder.failOn = map[int]bool{1: true}

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{
		Source:         f.source,
		TranscriptPath: f.transcript,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := result.Succeeded(); got != 1 {
		t.Fatalf("succeeded = %d, want 1", got)
	}
	failed := result.Outputs[0]
	if !errors.Is(failed.Err, services.ErrExternalTool) || failed.Status != history.StatusFailed {
		t.Fatalf("failed output = %+v", failed)
	}

	run, err := f.store.GetRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != history.StatusPartial || run.ClipsSucceeded != 1 {
		t.Fatalf("run = %+v", run)
	}
	if !strings.Contains(run.ErrorMessage, "encoder exploded") {
		t.Fatalf("run error = %q", run.ErrorMessage)
	}
}

func TestProcessFailsWhenNoClipSucceeds(t *testing.T) {
	f := newFixture(t)
	f.encoder.failOn = map[int]bool{1: true, 2: true}

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{
		Source:         f.source,
		TranscriptPath: f.transcript,
	})
	if err == nil {
		t.Fatal("expected error when every clip fails")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want external tool marker", err)
	}
	run, getErr := f.store.GetRun(context.Background(), result.RunID)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if run.Status != history.StatusFailed {
		t.Fatalf("run status = %q", run.Status)
	}
}

func TestProcessFallsBackToRandomWhenTranscriptionFails(t *testing.T) {
	f := newFixture(t)
	transcriber := &failingTranscriber{}
	f.deps.Transcriber = transcriber

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{Source: f.source})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if transcriber.calls != 1 {
		t.Fatalf("transcriber calls = %d", transcriber.calls)
	}
	if transcriber.hint != "en" {
		t.Fatalf("language hint = %q, want en", transcriber.hint)
	}
	if result.Method != selection.MethodRandom {
		t.Fatalf("method = %q, want random", result.Method)
	}
	for _, out := range result.Outputs {
		if out.Words != 0 {
			t.Fatalf("random clips should carry no captions, got %d words", out.Words)
		}
		if out.Spec.Points() != selection.RandomScore {
			t.Fatalf("score = %d", out.Spec.Points())
		}
	}
}

func TestProcessUsesManifest(t *testing.T) {
	f := newFixture(t)
	manifest := filepath.Join(filepath.Dir(f.source), "clips.json")
	data := `{"clips":[{"start":100,"end":130,"title":"Tail","virality_score":88}]}`
	if err := os.WriteFile(manifest, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := f.processor(t).Process(context.Background(), pipeline.Request{
		Source:         f.source,
		TranscriptPath: f.transcript,
		ManifestPath:   manifest,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Method != selection.MethodManifest || len(result.Outputs) != 1 {
		t.Fatalf("method=%q outputs=%d", result.Method, len(result.Outputs))
	}
	out := result.Outputs[0]
	if out.Spec.End != 120 {
		t.Fatalf("manifest end should clamp to duration, got %.1f", out.Spec.End)
	}
	if filepath.Base(out.Path) != "clip_1_88pts_my_talk.mp4" {
		t.Fatalf("path = %q", out.Path)
	}
}

func TestProcessRejectsLockedOutputDir(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(f.cfg.Paths.OutputDir, pipeline.LockFileName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	_, err = f.processor(t).Process(context.Background(), pipeline.Request{Source: f.source})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration marker", err)
	}
	if len(f.encoder.calls) != 0 {
		t.Fatal("nothing should be encoded while locked")
	}
}

func TestProcessValidatesInputs(t *testing.T) {
	f := newFixture(t)
	p := f.processor(t)

	tests := []struct {
		name   string
		req    pipeline.Request
		marker error
	}{
		{"missing source", pipeline.Request{Source: filepath.Join(filepath.Dir(f.source), "nope.mp4")}, services.ErrNotFound},
		{"empty source", pipeline.Request{}, services.ErrValidation},
		{"bad transcript", pipeline.Request{Source: f.source, TranscriptPath: f.source}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(context.Background(), tt.req)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("err = %v, want %v", err, tt.marker)
			}
		})
	}
}

func TestProcessStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.deps.Detector = reframe.DetectorFunc(func(context.Context, image.Image) ([]reframe.Observation, error) {
		cancel()
		return nil, nil
	})

	result, err := f.processor(t).Process(ctx, pipeline.Request{Source: f.source, TranscriptPath: f.transcript})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	run, getErr := f.store.GetRun(context.Background(), result.RunID)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if run.Status != history.StatusFailed {
		t.Fatalf("run status = %q", run.Status)
	}
}

func TestTrackReportsWindow(t *testing.T) {
	f := newFixture(t)

	res, err := f.processor(t).Track(context.Background(), f.source, 10, 20)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(res.Samples) == 0 || res.Detections() != len(res.Samples) {
		t.Fatalf("samples = %d detections = %d", len(res.Samples), res.Detections())
	}
	if res.Window.Left != 1097 || res.Window.Width != 606 {
		t.Fatalf("window = %+v", res.Window)
	}

	if _, err := f.processor(t).Track(context.Background(), f.source, 200, 210); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("past-end err = %v", err)
	}
}

func TestNewProcessorRequiresCollaborators(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	deps.Encoder = nil
	if _, err := pipeline.NewProcessor(f.cfg, deps, logging.NewNop()); err == nil {
		t.Fatal("expected error without encoder")
	}
	deps = f.deps
	deps.Detector = nil
	if _, err := pipeline.NewProcessor(f.cfg, deps, logging.NewNop()); err == nil {
		t.Fatal("expected error without detector")
	}
}
