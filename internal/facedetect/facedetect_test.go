package facedetect

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"reelcut/internal/config"
	"reelcut/internal/logging"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		q, half, want float64
	}{
		{0, 10, 0},
		{-3, 10, 0},
		{10, 10, 0.5},
		{30, 10, 0.75},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Confidence(tt.q, tt.half); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Confidence(%v, %v) = %v, want %v", tt.q, tt.half, got, tt.want)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default().Tracking
	cfg.CascadePath = filepath.Join(t.TempDir(), "missing-facefinder")
	if _, err := New(cfg, logging.NewNop()); err == nil || !strings.Contains(err.Error(), "read cascade") {
		t.Fatalf("expected missing cascade error, got %v", err)
	}

	cfg.Detector = "command"
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for empty detector command")
	}
	cfg.DetectorCommand = []string{"detect-faces", "--json"}
	det, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New command: %v", err)
	}
	if det.Name() != BackendCommand {
		t.Fatalf("unexpected backend %q", det.Name())
	}
	if err := det.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cfg.Detector = "haar"
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected unknown backend error")
	}
}

func TestCommandDetectorParsesBoxes(t *testing.T) {
	det, err := NewCommand([]string{"detect-faces", "--json"}, 0.5, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	det.WithCommandRunner(func(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		if name != "detect-faces" || len(args) != 1 || args[0] != "--json" {
			t.Fatalf("unexpected invocation %s %v", name, args)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(stdin))
		if err != nil || cfg.Width != 320 || cfg.Height != 180 {
			t.Fatalf("stdin is not the frame png: %+v %v", cfg, err)
		}
		return []byte(`{"faces":[
			{"x":100,"y":40,"width":60,"height":80,"score":0.9},
			{"x":10,"y":10,"width":20,"height":20,"score":0.2}
		]}`), nil
	})

	obs, err := det.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 180)))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected low score face to be dropped, got %d", len(obs))
	}
	if obs[0].CenterX != 130 || obs[0].CenterY != 80 || obs[0].Width != 60 || obs[0].Height != 80 {
		t.Fatalf("unexpected observation %+v", obs[0])
	}
}

func TestCommandDetectorErrors(t *testing.T) {
	det, err := NewCommand([]string{"detect-faces"}, 0, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))

	det.WithCommandRunner(func(context.Context, []byte, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 2")
	})
	if _, err := det.Detect(context.Background(), frame); err == nil {
		t.Fatal("expected runner error")
	}

	det.WithCommandRunner(func(context.Context, []byte, string, ...string) ([]byte, error) {
		return []byte("faces: none"), nil
	})
	if _, err := det.Detect(context.Background(), frame); err == nil {
		t.Fatal("expected parse error")
	}
}
