package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

var digestPattern = regexp.MustCompile(`^daily_digest_(\d{4})_(\d{2})_(\d{2})\.mp3$`)

// Metadata is the sidecar JSON written next to each published digest.
type Metadata struct {
	Date            string  `json:"date"`
	File            string  `json:"file"`
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	Duration        string  `json:"duration"`
	PublishedAt     string  `json:"published_at"`
}

// Result holds the per-run publishing counters.
type Result struct {
	PublishedFile string
	FeedPath      string
	Episodes      int
}

// Stage moves the newest digest to permanent storage, writes its
// metadata, regenerates the podcast feed, and clears the staging
// directory.
type Stage struct {
	prober    Prober
	generator *Generator
	audioDir  string
	tempDir   string
}

func NewStage(prober Prober, generator *Generator, audioDir, tempDir string) *Stage {
	return &Stage{prober: prober, generator: generator, audioDir: audioDir, tempDir: tempDir}
}

// Run publishes the most recent digest. The staging directory is
// preferred over the permanent one when both hold a candidate.
func (s *Stage) Run(ctx context.Context, date string) (Result, error) {
	var result Result

	candidate := newestDigest(s.tempDir)
	if candidate == "" {
		candidate = newestDigest(s.audioDir)
	}
	if candidate == "" {
		return result, fmt.Errorf("no digest file found to publish")
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create audio directory: %w", err)
	}

	duration, size, err := s.prober.Probe(ctx, candidate)
	if err != nil {
		slog.Warn("Failed to probe digest, using file size only", "file", candidate, "error", err)
		if info, statErr := os.Stat(candidate); statErr == nil {
			size = info.Size()
		}
	}

	finalPath := filepath.Join(s.audioDir, filepath.Base(candidate))
	if candidate != finalPath {
		if err := moveFile(candidate, finalPath); err != nil {
			return result, fmt.Errorf("failed to move digest to permanent storage: %w", err)
		}
	}

	episodeDate := dateFromFileName(filepath.Base(finalPath))
	if episodeDate == "" {
		episodeDate = date
	}

	metadata := Metadata{
		Date:            episodeDate,
		File:            filepath.Base(finalPath),
		SizeBytes:       size,
		DurationSeconds: duration,
		Duration:        timeutil.FormatDuration(duration),
		PublishedAt:     timeutil.CurrentTimestamp(),
	}
	if err := s.writeMetadata(metadata); err != nil {
		slog.Error("Failed to write episode metadata", "error", err)
	}

	episodes := s.collectEpisodes()
	feed := s.generator.Run(episodes)

	feedPath := filepath.Join(s.audioDir, "podcast.xml")
	if err := os.WriteFile(feedPath, []byte(feed), 0o644); err != nil {
		return result, fmt.Errorf("failed to write podcast feed: %w", err)
	}

	s.clearTempDir()

	result.PublishedFile = finalPath
	result.FeedPath = feedPath
	result.Episodes = len(episodes)

	slog.Info("Publishing completed",
		"date", date,
		"file", finalPath,
		"episodes", len(episodes),
		"duration", timeutil.FormatDuration(duration))

	return result, nil
}

func (s *Stage) writeMetadata(metadata Metadata) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := filepath.Join(s.audioDir, fmt.Sprintf("metadata_%s.json", metadata.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// collectEpisodes lists every published digest, newest date first, using
// each sidecar metadata file when present.
func (s *Stage) collectEpisodes() []Episode {
	entries, err := os.ReadDir(s.audioDir)
	if err != nil {
		slog.Error("Failed to read audio directory", "dir", s.audioDir, "error", err)
		return nil
	}

	var episodes []Episode
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		episodeDate := dateFromFileName(entry.Name())
		if episodeDate == "" {
			continue
		}

		episode := Episode{Date: episodeDate, FileName: entry.Name()}

		metaPath := filepath.Join(s.audioDir, fmt.Sprintf("metadata_%s.json", episodeDate))
		if data, err := os.ReadFile(metaPath); err == nil {
			var metadata Metadata
			if err := json.Unmarshal(data, &metadata); err == nil {
				episode.SizeBytes = metadata.SizeBytes
				episode.DurationSeconds = metadata.DurationSeconds
			}
		}
		if episode.SizeBytes == 0 {
			if info, err := entry.Info(); err == nil {
				episode.SizeBytes = info.Size()
			}
		}

		episodes = append(episodes, episode)
	}

	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Date > episodes[j].Date
	})

	return episodes
}

func (s *Stage) clearTempDir() {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove temp file", "file", path, "error", err)
		}
	}
}

// newestDigest returns the most recently modified digest file in dir, or
// empty when none exists.
func newestDigest(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !digestPattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}

	return newest
}

// dateFromFileName recovers the canonical date from a digest file name,
// e.g. daily_digest_2024_01_15.mp3 yields 2024-01-15.
func dateFromFileName(name string) string {
	m := digestPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Rename fails across filesystems; fall back to copy and remove.
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize destination file: %w", err)
	}

	return os.Remove(src)
}
