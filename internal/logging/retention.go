package logging

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// runLogTime recovers the start time encoded by RunLogName. Files that do not
// carry one fall back to their modification time.
func runLogTime(path string, info fs.FileInfo) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "reelcut-"), ".log")
	if ts, err := time.Parse("20060102T150405Z", stamp); err == nil {
		return ts
	}
	return info.ModTime()
}

// PruneRunLogs deletes run logs in dir started more than retentionDays ago,
// sparing keep (normally the current run's log). It reports how many files
// were removed. retentionDays <= 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, keep string) (int, error) {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep = filepath.Clean(keep)

	removed := 0
	var errs []error
	for _, path := range matches {
		if filepath.Clean(path) == keep {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if !runLogTime(path, info).Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log not pruned", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "old run log stays on disk"),
			)
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Debug("run logs pruned",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed, errors.Join(errs...)
}
