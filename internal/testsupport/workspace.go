// Package testsupport builds throwaway reelcut workspaces for tests.
package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcut/internal/config"
	"reelcut/internal/history"
)

// Workspace is a reelcut directory layout rooted in a per-test temp dir.
type Workspace struct {
	Root   string
	Config *config.Config
	t      testing.TB
}

// Option adjusts the workspace config before it is returned.
type Option func(*config.Config)

// WithSelection sets the clip count and duration bounds.
func WithSelection(clips, minSeconds, maxSeconds int) Option {
	return func(cfg *config.Config) {
		cfg.Selection.Clips = clips
		cfg.Selection.MinSeconds = minSeconds
		cfg.Selection.MaxSeconds = maxSeconds
	}
}

// NewWorkspace returns default config with every path under t.TempDir()
// and a fixed selection seed.
func NewWorkspace(t testing.TB, opts ...Option) *Workspace {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(root, "clips")
	cfg.Paths.TempDir = filepath.Join(root, "tmp")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Tracking.CascadePath = filepath.Join(root, "cascade", "facefinder")
	cfg.Selection.RandomSeed = 7
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Workspace{Root: root, Config: &cfg, t: t}
}

// Path joins elem onto the workspace root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Root}, elem...)...)
}

// StubTools writes executables into <root>/bin and puts that directory first
// on PATH. Names mapped to "" get a script that exits 0.
func (w *Workspace) StubTools(scripts map[string]string) {
	w.t.Helper()

	bin := w.Path("bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		w.t.Fatalf("mkdir bin: %v", err)
	}
	for name, body := range scripts {
		if strings.TrimSpace(body) == "" {
			body = "#!/bin/sh\nexit 0\n"
		}
		if err := os.WriteFile(filepath.Join(bin, name), []byte(body), 0o755); err != nil {
			w.t.Fatalf("write stub %s: %v", name, err)
		}
	}
	w.t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// WriteSource creates a placeholder media file of size bytes and returns its path.
func (w *Workspace) WriteSource(name string, size int) string {
	w.t.Helper()

	path := w.Path(name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, max(size, 1)), 0o644); err != nil {
		w.t.Fatalf("write source %s: %v", name, err)
	}
	return path
}

// History opens the run history under the workspace state dir, closed on cleanup.
func (w *Workspace) History() *history.Store {
	w.t.Helper()

	store, err := history.Open(w.Config.HistoryPath())
	if err != nil {
		w.t.Fatalf("history.Open: %v", err)
	}
	w.t.Cleanup(func() { _ = store.Close() })
	return store
}

// SolidFrame returns a PNG-encoded width x height frame filled with c, the
// shape ffmpeg hands back for a single extracted frame.
func SolidFrame(t testing.TB, width, height int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
