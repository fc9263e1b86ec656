package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yourdaily/daily-podcaster/app/database"
)

// Retention horizons. Audio artifacts and metadata live longer than
// store rows; logs longest of all.
const (
	FinalRetentionDays = 7
	LogRetentionDays   = 30
	RowRetentionDays   = 3
)

// Result holds the per-run cleanup counters.
type Result struct {
	TempRemoved   int
	FinalsRemoved int
	LogsRemoved   int
	Purge         database.PurgeResult
}

// Stage removes transient files, expired artifacts, old logs, and stale
// store rows. Every sub-operation is independent; a failure in one is
// logged and the rest still run.
type Stage struct {
	store    *database.Store
	audioDir string
	tempDir  string
	logsDir  string
}

func NewStage(store *database.Store, audioDir, tempDir, logsDir string) *Stage {
	return &Stage{store: store, audioDir: audioDir, tempDir: tempDir, logsDir: logsDir}
}

// Run executes all cleanup sub-operations and reports usage before and
// after.
func (s *Stage) Run(_ context.Context, _ string) (Result, error) {
	var result Result

	s.reportUsage("before")
	startTime := time.Now()

	result.TempRemoved = s.RemoveTempAudio()
	result.FinalsRemoved = s.RemoveOldFinals(FinalRetentionDays)
	result.LogsRemoved = s.RemoveOldLogs(LogRetentionDays)
	result.Purge = s.store.PurgeOlderThan(RowRetentionDays)

	s.reportUsage("after")

	slog.Info("Cleanup completed",
		"temp_removed", result.TempRemoved,
		"finals_removed", result.FinalsRemoved,
		"logs_removed", result.LogsRemoved,
		"rows_purged", result.Purge.SearchDeleted+result.Purge.ArtifactDeleted,
		"duration", time.Since(startTime))

	return result, nil
}

// RemoveTempAudio deletes every file in the staging directory,
// regardless of age.
func (s *Stage) RemoveTempAudio() int {
	return removeMatching(s.tempDir, func(string, time.Time) bool { return true })
}

// RemoveOldFinals deletes published digests and their metadata older
// than days days.
func (s *Stage) RemoveOldFinals(days int) int {
	cutoff := time.Now().AddDate(0, 0, -days)
	return removeMatching(s.audioDir, func(name string, modTime time.Time) bool {
		if filepath.Ext(name) != ".mp3" && filepath.Ext(name) != ".json" {
			return false
		}
		return modTime.Before(cutoff)
	})
}

// RemoveOldLogs deletes log files older than days days.
func (s *Stage) RemoveOldLogs(days int) int {
	cutoff := time.Now().AddDate(0, 0, -days)
	return removeMatching(s.logsDir, func(_ string, modTime time.Time) bool {
		return modTime.Before(cutoff)
	})
}

// PurgeDate removes store rows for one exact date.
func (s *Stage) PurgeDate(date string) database.PurgeResult {
	result := s.store.PurgeDate(date)
	slog.Info("Purged store rows for date",
		"date", date,
		"search_deleted", result.SearchDeleted,
		"artifacts_deleted", result.ArtifactDeleted)
	return result
}

func (s *Stage) reportUsage(phase string) {
	slog.Info("Disk usage",
		"phase", phase,
		"audio", fmt.Sprintf("%.1f MB", dirSizeMB(s.audioDir)),
		"temp", fmt.Sprintf("%.1f MB", dirSizeMB(s.tempDir)),
		"logs", fmt.Sprintf("%.1f MB", dirSizeMB(s.logsDir)))
}

func removeMatching(dir string, match func(name string, modTime time.Time) bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read directory", "dir", dir, "error", err)
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !match(entry.Name(), info.ModTime()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove file", "file", path, "error", err)
			continue
		}
		removed++
	}

	return removed
}

func dirSizeMB(dir string) float64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return float64(total) / (1024 * 1024)
}
