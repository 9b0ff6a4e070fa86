package selection

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcut/internal/logging"
	"reelcut/internal/services"
	"reelcut/internal/transcript"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func testSegments() []transcript.Segment {
	return []transcript.Segment{
		{Text: "intro", Start: 0, End: 10},
		{Text: "story", Start: 10, End: 45},
		{Text: "advice", Start: 45, End: 130},
		{Text: "outro", Start: 130, End: 140},
	}
}

type fakeCompleter struct {
	content string
	err     error
	prompt  string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, user string) (string, error) {
	f.prompt = user
	return f.content, f.err
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{"valid", Spec{Start: 1, End: 30, Score: 80}, ""},
		{"end before start", Spec{Start: 30, End: 10}, "end must be greater than start"},
		{"negative start", Spec{Start: -1, End: 10}, "start must be at least 0"},
		{"score too high", Spec{Start: 0, End: 10, Score: 120}, "virality_score must be at most 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spec)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
		})
	}
}

func TestRandomRespectsBounds(t *testing.T) {
	req := Request{Duration: 300, Clips: 5, MinSeconds: 20, MaxSeconds: 60}
	specs := Random(req, testRNG())
	if len(specs) != 5 {
		t.Fatalf("expected 5 clips, got %d", len(specs))
	}
	for _, s := range specs {
		if s.Duration() < 20 || s.Duration() > 60 || s.Start < 0 || s.End > 300 {
			t.Fatalf("clip out of bounds: %+v", s)
		}
		if s.Score != RandomScore || s.HookType != DefaultHookType {
			t.Fatalf("unexpected defaults: %+v", s)
		}
	}

	if got := Random(Request{Duration: 10, Clips: 3, MinSeconds: 20, MaxSeconds: 60}, testRNG()); len(got) != 0 {
		t.Fatalf("short source should yield no clips, got %d", len(got))
	}
}

func TestFromSegmentsExtendsAndCaps(t *testing.T) {
	req := Request{Duration: 140, Clips: 10, MinSeconds: 20, MaxSeconds: 60}
	specs := FromSegments(testSegments(), req, testRNG())
	if len(specs) != 4 {
		t.Fatalf("expected one clip per segment, got %d", len(specs))
	}
	byStart := map[float64]Spec{}
	for _, s := range specs {
		byStart[s.Start] = s
		if s.Score != SegmentScore {
			t.Fatalf("unexpected score %v", s.Score)
		}
	}
	if got := byStart[0].End; got != 45 {
		t.Fatalf("short intro should extend to the next segment, got end %v", got)
	}
	if got := byStart[45].End; got != 105 {
		t.Fatalf("long segment should be capped at max, got end %v", got)
	}
	if got := byStart[130].End; got != 140 {
		t.Fatalf("last segment cannot extend, got end %v", got)
	}
}

func TestAcceptFiltersSortsAndTruncates(t *testing.T) {
	req := Request{Duration: 200, Clips: 2, MinSeconds: 20, MaxSeconds: 60}
	got := Accept([]Spec{
		{Start: 10, End: 40, Title: "ok", Score: 60},
		{Start: 50, End: 150, Title: "too long", Score: 90},
		{Start: 100, End: 105, Title: "too short", Score: 99},
		{Start: 180, End: 230, Title: "past end", Score: 95},
		{Start: 60, End: 20, Title: "reversed", Score: 95},
		{Start: 0, End: 30, Score: 70},
	}, req)
	if len(got) != 2 {
		t.Fatalf("expected 2 clips, got %d: %+v", len(got), got)
	}
	if got[0].Title != "too long" || got[0].End != 110 {
		t.Fatalf("expected truncated top clip first, got %+v", got[0])
	}
	if got[1].Title != "Clip 6" || got[1].HookType != DefaultHookType {
		t.Fatalf("expected defaulted second clip, got %+v", got[1])
	}
}

func TestLLMSelectorRanks(t *testing.T) {
	tr := &transcript.Transcript{Segments: testSegments()}
	fake := &fakeCompleter{content: "```json\n{\"clips\":[{\"start\":10,\"end\":45,\"title\":\"Story\",\"virality_score\":85,\"hook_type\":\"story_reveal\"}]}\n```"}
	sel := NewLLMSelector(fake, logging.NewNop())
	specs, method, err := sel.Select(context.Background(), tr, Request{Duration: 140, Clips: 3, MinSeconds: 20, MaxSeconds: 60}, testRNG())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if method != MethodLLM || len(specs) != 1 || specs[0].Title != "Story" || specs[0].Points() != 85 {
		t.Fatalf("unexpected selection %s %+v", method, specs)
	}
	if !strings.Contains(fake.prompt, "[10.0s - 45.0s] story") || !strings.Contains(fake.prompt, "20-60 seconds") {
		t.Fatalf("prompt missing transcript or bounds:\n%s", fake.prompt)
	}
}

func TestLLMSelectorFallsBack(t *testing.T) {
	tr := &transcript.Transcript{Segments: testSegments()}
	req := Request{Duration: 140, Clips: 2, MinSeconds: 20, MaxSeconds: 60}
	for _, fake := range []*fakeCompleter{
		{err: errors.New("llm request: http 500")},
		{content: `{"clips":[{"start":0,"end":5}]}`},
		{content: "I cannot help with that"},
	} {
		specs, method, err := NewLLMSelector(fake, logging.NewNop()).Select(context.Background(), tr, req, testRNG())
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if method != MethodSegments || len(specs) != 2 || specs[0].Score != SegmentScore {
			t.Fatalf("expected segment fallback, got %s %+v", method, specs)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewLLMSelector(&fakeCompleter{err: context.Canceled}, logging.NewNop()).Select(ctx, tr, req, testRNG())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	wrapped := filepath.Join(dir, "clips.json")
	if err := os.WriteFile(wrapped, []byte(`{"clips":[{"start":5,"end":25,"virality_score":70}]}`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	specs, err := LoadManifest(wrapped)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(specs) != 1 || specs[0].Title != "Clip 1" || specs[0].HookType != DefaultHookType {
		t.Fatalf("unexpected manifest specs %+v", specs)
	}

	bare := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bare, []byte(`[{"start":5,"end":25},{"start":40,"end":30}]`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(bare); err == nil || !strings.Contains(err.Error(), "manifest clip 2") {
		t.Fatalf("expected clip 2 validation error, got %v", err)
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.json")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSelectorOrder(t *testing.T) {
	tr := &transcript.Transcript{Segments: testSegments()}
	req := Request{Duration: 140, Clips: 2, MinSeconds: 20, MaxSeconds: 60}

	manifest := filepath.Join(t.TempDir(), "clips.json")
	if err := os.WriteFile(manifest, []byte(`[{"start":120,"end":150},{"start":150,"end":170}]`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	plan, err := NewSelector(nil, 7, logging.NewNop()).Select(context.Background(), Input{Request: req, Transcript: tr, ManifestPath: manifest})
	if err != nil {
		t.Fatalf("Select manifest: %v", err)
	}
	if plan.Method != MethodManifest || len(plan.Specs) != 1 || plan.Specs[0].End != 140 {
		t.Fatalf("unexpected manifest plan %+v", plan)
	}

	fake := &fakeCompleter{content: `{"clips":[{"start":10,"end":45,"virality_score":85}]}`}
	plan, err = NewSelector(NewLLMSelector(fake, logging.NewNop()), 7, logging.NewNop()).Select(context.Background(), Input{Request: req, Transcript: tr})
	if err != nil || plan.Method != MethodLLM {
		t.Fatalf("expected llm plan, got %+v %v", plan, err)
	}

	plan, err = NewSelector(nil, 7, logging.NewNop()).Select(context.Background(), Input{Request: req, Transcript: tr})
	if err != nil || plan.Method != MethodSegments {
		t.Fatalf("expected segment plan, got %+v %v", plan, err)
	}

	plan, err = NewSelector(NewLLMSelector(fake, logging.NewNop()), 7, logging.NewNop()).Select(context.Background(), Input{Request: Request{Duration: 300, Clips: 2, MinSeconds: 20, MaxSeconds: 60}})
	if err != nil || plan.Method != MethodRandom || len(plan.Specs) != 2 {
		t.Fatalf("expected random plan, got %+v %v", plan, err)
	}
}

func TestSelectorSeedIsDeterministic(t *testing.T) {
	req := Request{Duration: 600, Clips: 3, MinSeconds: 20, MaxSeconds: 60}
	a, _ := NewSelector(nil, 42, logging.NewNop()).Select(context.Background(), Input{Request: req})
	b, _ := NewSelector(nil, 42, logging.NewNop()).Select(context.Background(), Input{Request: req})
	for i := range a.Specs {
		if a.Specs[i] != b.Specs[i] {
			t.Fatalf("seeded selections differ at %d: %+v vs %+v", i, a.Specs[i], b.Specs[i])
		}
	}
}
