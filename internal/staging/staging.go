package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"reelcut/internal/logging"
)

// Dir describes one work directory.
type Dir struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanupError pairs a directory with the error that kept it from being removed.
type CleanupError struct {
	Path string
	Err  error
}

// SweepResult reports what a sweep removed.
type SweepResult struct {
	Removed []Dir
	Errors  []CleanupError
}

// Freed returns the bytes reclaimed by the sweep.
func (r SweepResult) Freed() int64 {
	var total int64
	for _, dir := range r.Removed {
		total += dir.Size
	}
	return total
}

// List returns the work directories under root, oldest first. A missing root
// yields no directories.
func List(root string) ([]Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []Dir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		dirs = append(dirs, Dir{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    dirSize(path),
		})
	}
	slices.SortFunc(dirs, func(a, b Dir) int { return a.ModTime.Compare(b.ModTime) })
	return dirs, nil
}

// Sweep removes work directories under root last modified more than olderThan
// ago. Zero olderThan removes every directory. Names in keep are never removed.
func Sweep(ctx context.Context, root string, olderThan time.Duration, keep map[string]struct{}, logger *slog.Logger) SweepResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result SweepResult
	dirs, err := List(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Err: err})
		return result
	}

	cutoff := time.Now().Add(-olderThan)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if _, ok := keep[dir.Name]; ok {
			continue
		}
		if olderThan > 0 && !dir.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Err: err})
			logging.WarnWithContext(logger, "failed to remove work directory", "staging_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.temp_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir)
		logger.Info("removed work directory",
			logging.String("path", dir.Path),
			logging.Duration("age", time.Since(dir.ModTime)),
			logging.Int64("bytes", dir.Size),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
