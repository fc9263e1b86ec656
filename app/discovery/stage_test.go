package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/yourdaily/daily-podcaster/app/database"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()

	dir := t.TempDir()

	searchDB, err := database.NewConnection(filepath.Join(dir, "search_index.db"))
	if err != nil {
		t.Fatalf("Failed to open search database: %v", err)
	}
	t.Cleanup(func() { searchDB.Close() })

	articleDB, err := database.NewConnection(filepath.Join(dir, "article_data.db"))
	if err != nil {
		t.Fatalf("Failed to open article database: %v", err)
	}
	t.Cleanup(func() { articleDB.Close() })

	if err := database.RunSearchMigrations(searchDB); err != nil {
		t.Fatalf("Failed to run search migrations: %v", err)
	}
	if err := database.RunArticleMigrations(articleDB); err != nil {
		t.Fatalf("Failed to run article migrations: %v", err)
	}

	return database.NewStore(searchDB, articleDB)
}

type fakeSearchClient struct {
	results map[string][]Item
	errors  map[string]error
}

func (f *fakeSearchClient) Search(_ context.Context, topic string) ([]Item, error) {
	if err := f.errors[topic]; err != nil {
		return nil, err
	}
	return f.results[topic], nil
}

func TestRunStoresMatchingArticles(t *testing.T) {
	store := newTestStore(t)

	client := &fakeSearchClient{
		results: map[string][]Item{
			"Technology": {
				{Title: "On Date", Link: "https://news.example.com/1", Source: "Example", PublishedRaw: "Mon, 15 Jan 2024 10:00:00 GMT"},
				{Title: "Wrong Date", Link: "https://news.example.com/2", Source: "Example", PublishedRaw: "Sun, 14 Jan 2024 10:00:00 GMT"},
				{Title: "Bad Date", Link: "https://news.example.com/3", Source: "Example", PublishedRaw: "not a date"},
			},
		},
	}

	stage := NewStage(store, client, []string{"Technology"})

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.TopicsSearched != 1 {
		t.Errorf("Expected 1 topic searched, got %d", result.TopicsSearched)
	}
	if result.ArticlesFound != 1 {
		t.Errorf("Expected 1 article found, got %d", result.ArticlesFound)
	}
	if result.ArticlesStored != 1 {
		t.Errorf("Expected 1 article stored, got %d", result.ArticlesStored)
	}

	pending := store.PendingForDate("2024-01-15")
	if len(pending) != 1 || pending[0].Title != "On Date" {
		t.Errorf("Expected the on-date article in the store, got %+v", pending)
	}
}

func TestRunSkipsKnownArticles(t *testing.T) {
	store := newTestStore(t)
	store.RecordDiscovery("Technology", "Already Known", "https://news.example.com/known", "Example", "", "2024-01-15")

	client := &fakeSearchClient{
		results: map[string][]Item{
			"Technology": {
				{Title: "Already Known", Link: "https://news.example.com/known", Source: "Example", PublishedRaw: "2024-01-15"},
			},
		},
	}

	stage := NewStage(store, client, []string{"Technology"})

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.ArticlesFound != 1 {
		t.Errorf("Expected 1 article found, got %d", result.ArticlesFound)
	}
	if result.ArticlesStored != 0 {
		t.Errorf("Expected 0 articles stored for known url, got %d", result.ArticlesStored)
	}
}

func TestRunContinuesAfterTopicFailure(t *testing.T) {
	store := newTestStore(t)

	client := &fakeSearchClient{
		results: map[string][]Item{
			"Science": {
				{Title: "Survivor", Link: "https://news.example.com/s", Source: "Example", PublishedRaw: "2024-01-15"},
			},
		},
		errors: map[string]error{
			"Technology": fmt.Errorf("connection refused"),
		},
	}

	stage := NewStage(store, client, []string{"Technology", "Science"})

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Expected topic failure to not fail the stage, got %v", err)
	}

	if result.TopicsSearched != 2 {
		t.Errorf("Expected 2 topics searched, got %d", result.TopicsSearched)
	}
	if result.ArticlesStored != 1 {
		t.Errorf("Expected 1 article stored from the surviving topic, got %d", result.ArticlesStored)
	}
}

func TestRunFailsWithoutTopics(t *testing.T) {
	stage := NewStage(newTestStore(t), &fakeSearchClient{}, nil)

	if _, err := stage.Run(context.Background(), "2024-01-15"); err == nil {
		t.Error("Expected error for empty topic list")
	}
}

func TestSplitTitleSource(t *testing.T) {
	tests := []struct {
		title      string
		wantTitle  string
		wantSource string
	}{
		{"Big Launch Announced - TechDaily", "Big Launch Announced", "TechDaily"},
		{"Dashes - in - headline - Publisher", "Dashes - in - headline", "Publisher"},
		{"No separator here", "No separator here", ""},
	}

	for _, tt := range tests {
		title, source := splitTitleSource(tt.title)
		if title != tt.wantTitle || source != tt.wantSource {
			t.Errorf("splitTitleSource(%q): expected (%q, %q), got (%q, %q)",
				tt.title, tt.wantTitle, tt.wantSource, title, source)
		}
	}
}
