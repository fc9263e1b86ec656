package publish

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeProber struct {
	duration float64
	size     int64
	err      error
}

func (f *fakeProber) Probe(_ context.Context, _ string) (float64, int64, error) {
	return f.duration, f.size, f.err
}

func testGenerator() *Generator {
	return NewGenerator(FeedConfig{
		Title:       "Your Daily News Digest",
		Author:      "Newsroom",
		Description: "The day's stories, narrated.",
		Language:    "en-us",
		BaseURL:     "https://podcast.example.com",
		Version:     "test",
	})
}

func writeDigest(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("mp3-bytes-"+name), 0o644); err != nil {
		t.Fatalf("Failed to write digest: %v", err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("Failed to set mod time: %v", err)
		}
	}
	return path
}

func TestRunPublishesDigest(t *testing.T) {
	audioDir := t.TempDir()
	tempDir := t.TempDir()
	writeDigest(t, tempDir, "daily_digest_2024_01_15.mp3", time.Time{})
	writeDigest(t, tempDir, "topic_technology_2024_01_15.mp3", time.Time{})

	stage := NewStage(&fakeProber{duration: 185.5, size: 2048}, testGenerator(), audioDir, tempDir)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantFile := filepath.Join(audioDir, "daily_digest_2024_01_15.mp3")
	if result.PublishedFile != wantFile {
		t.Errorf("Expected published file '%s', got '%s'", wantFile, result.PublishedFile)
	}
	if _, err := os.Stat(wantFile); err != nil {
		t.Errorf("Expected digest in permanent storage: %v", err)
	}

	// Staging area is cleared after publishing.
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("Expected empty temp dir after publish, found %d entries", len(entries))
	}

	metaPath := filepath.Join(audioDir, "metadata_2024-01-15.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("Expected metadata file: %v", err)
	}
	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		t.Fatalf("Failed to parse metadata: %v", err)
	}
	if metadata.Date != "2024-01-15" || metadata.DurationSeconds != 185.5 || metadata.SizeBytes != 2048 {
		t.Errorf("Unexpected metadata %+v", metadata)
	}
	if metadata.Duration != "03:05" {
		t.Errorf("Expected formatted duration '03:05', got '%s'", metadata.Duration)
	}

	feed, err := os.ReadFile(result.FeedPath)
	if err != nil {
		t.Fatalf("Expected podcast feed: %v", err)
	}
	for _, want := range []string{
		"<title>Your Daily News Digest</title>",
		"Daily Digest for 2024-01-15",
		"https://podcast.example.com/audio/daily_digest_2024_01_15.mp3",
		"<itunes:duration>03:05</itunes:duration>",
	} {
		if !strings.Contains(string(feed), want) {
			t.Errorf("Expected feed to contain %q", want)
		}
	}
}

func TestRunPrefersTempOverPermanent(t *testing.T) {
	audioDir := t.TempDir()
	tempDir := t.TempDir()

	old := time.Now().Add(-time.Hour)
	writeDigest(t, audioDir, "daily_digest_2024_01_16.mp3", time.Now())
	writeDigest(t, tempDir, "daily_digest_2024_01_15.mp3", old)

	stage := NewStage(&fakeProber{duration: 60, size: 100}, testGenerator(), audioDir, tempDir)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The staged file wins even though the permanent one is newer.
	if filepath.Base(result.PublishedFile) != "daily_digest_2024_01_15.mp3" {
		t.Errorf("Expected staged digest to be published, got '%s'", result.PublishedFile)
	}
	if result.Episodes != 2 {
		t.Errorf("Expected 2 episodes in the feed, got %d", result.Episodes)
	}
}

func TestRunPicksNewestFromPermanent(t *testing.T) {
	audioDir := t.TempDir()
	tempDir := t.TempDir()

	writeDigest(t, audioDir, "daily_digest_2024_01_14.mp3", time.Now().Add(-2*time.Hour))
	writeDigest(t, audioDir, "daily_digest_2024_01_15.mp3", time.Now())

	stage := NewStage(&fakeProber{duration: 60, size: 100}, testGenerator(), audioDir, tempDir)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if filepath.Base(result.PublishedFile) != "daily_digest_2024_01_15.mp3" {
		t.Errorf("Expected newest digest published, got '%s'", result.PublishedFile)
	}
}

func TestRunFailsWithoutDigest(t *testing.T) {
	stage := NewStage(&fakeProber{}, testGenerator(), t.TempDir(), t.TempDir())

	if _, err := stage.Run(context.Background(), "2024-01-15"); err == nil {
		t.Error("Expected error when no digest exists")
	}
}

func TestRunToleratesProbeFailure(t *testing.T) {
	audioDir := t.TempDir()
	tempDir := t.TempDir()
	writeDigest(t, tempDir, "daily_digest_2024_01_15.mp3", time.Time{})

	stage := NewStage(&fakeProber{err: os.ErrNotExist}, testGenerator(), audioDir, tempDir)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Expected probe failure to be tolerated, got %v", err)
	}
	if result.PublishedFile == "" {
		t.Error("Expected digest to still be published")
	}
}

func TestDateFromFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"daily_digest_2024_01_15.mp3", "2024-01-15"},
		{"daily_digest_2024_1_15.mp3", ""},
		{"topic_technology_2024_01_15.mp3", ""},
		{"podcast.xml", ""},
	}

	for _, tt := range tests {
		if got := dateFromFileName(tt.name); got != tt.want {
			t.Errorf("dateFromFileName(%q): expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestFeedEscapesContent(t *testing.T) {
	generator := NewGenerator(FeedConfig{
		Title:   "News & Views <Daily>",
		BaseURL: "https://podcast.example.com",
		Version: "test",
	})

	feed := generator.Run(nil)
	if !strings.Contains(feed, "News &amp; Views &lt;Daily&gt;") {
		t.Errorf("Expected escaped channel title, got %s", feed)
	}
}
