package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneOld removes files in dir matching pattern whose modification time is
// older than maxAge. Paths listed in keep are never removed. A non-positive
// maxAge disables pruning. It returns the number of files removed.
func PruneOld(logger *slog.Logger, dir, pattern string, maxAge time.Duration, keep ...string) int {
	if maxAge <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	protected := make(map[string]bool, len(keep))
	for _, path := range keep {
		protected[filepath.Clean(path)] = true
	}
	cutoff := time.Now().Add(-maxAge)

	removed := 0
	for _, path := range matches {
		if protected[filepath.Clean(path)] {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String(FieldPath, path),
				Error(err),
				String(FieldImpact, "old log file remains on disk"),
				String(FieldErrorHint, "check permissions on the log directory"))
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("old logs pruned",
			String(FieldEventType, "log_pruned"),
			String(FieldPath, dir),
			Int("count", removed))
	}
	return removed
}
