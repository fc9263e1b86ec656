package scrape

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
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

type fakeResolver struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
}

func (f *fakeResolver) Resolve(_ context.Context, sourceURL string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn[sourceURL] {
		return "", fmt.Errorf("resolve failed")
	}
	return strings.Replace(sourceURL, "news.example.com", "real.example.com", 1), nil
}

type fakeFetcher struct {
	failOn map[string]bool
	body   string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	if f.failOn[pageURL] {
		return "", fmt.Errorf("fetch failed")
	}
	return f.body, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _, _ string) (string, error) {
	return f.text, f.err
}

func longText() string {
	return strings.Repeat("A reasonably long sentence about the news. ", 5)
}

func seedArticles(t *testing.T, store *database.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("https://news.example.com/article-%d", i)
		if !store.RecordDiscovery("Technology", fmt.Sprintf("Article %d", i), url, "Example", "", "2024-01-15") {
			t.Fatalf("Failed to seed article %d", i)
		}
	}
}

func TestRunScrapesPendingArticles(t *testing.T) {
	store := newTestStore(t)
	seedArticles(t, store, 2)

	stage := NewStage(store,
		&fakeResolver{},
		&fakeFetcher{body: "<html>body</html>"},
		&fakeExtractor{text: longText()},
		1, 0)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Processed != 2 || result.Scraped != 2 {
		t.Errorf("Expected 2 processed and 2 scraped, got %+v", result)
	}

	if len(store.PendingForDate("2024-01-15")) != 0 {
		t.Error("Expected no pending articles after scraping")
	}

	ready := store.ArticlesReadyForSummary("2024-01-15")
	if len(ready) != 2 {
		t.Fatalf("Expected 2 articles ready for summary, got %d", len(ready))
	}
	for _, a := range ready {
		if a.CleanText == "" {
			t.Errorf("Expected clean text on artifact %s", a.ResolvedURL)
		}
		if !strings.HasPrefix(a.ResolvedURL, "https://real.example.com/") {
			t.Errorf("Expected resolved url to be stored, got '%s'", a.ResolvedURL)
		}
	}
}

func TestRunFailuresAreIndependent(t *testing.T) {
	store := newTestStore(t)
	seedArticles(t, store, 3)

	stage := NewStage(store,
		&fakeResolver{failOn: map[string]bool{"https://news.example.com/article-1": true}},
		&fakeFetcher{body: "<html>body</html>"},
		&fakeExtractor{text: longText()},
		1, 0)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Scraped != 2 {
		t.Errorf("Expected 2 scraped despite one resolve failure, got %d", result.Scraped)
	}
	if result.Failures[OutcomeResolveFailed] != 1 {
		t.Errorf("Expected 1 resolve failure, got %+v", result.Failures)
	}
}

func TestRunRejectsShortContent(t *testing.T) {
	store := newTestStore(t)
	seedArticles(t, store, 1)

	stage := NewStage(store,
		&fakeResolver{},
		&fakeFetcher{body: "<html>thin</html>"},
		&fakeExtractor{text: "Too short."},
		1, 0)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Scraped != 0 {
		t.Errorf("Expected 0 scraped for short content, got %d", result.Scraped)
	}
	if result.Failures[OutcomeTooShort] != 1 {
		t.Errorf("Expected 1 too-short failure, got %+v", result.Failures)
	}
	if len(store.ArticlesReadyForSummary("2024-01-15")) != 0 {
		t.Error("Expected no artifact for rejected content")
	}
}

func TestRunSkipsInvalidSourceURL(t *testing.T) {
	store := newTestStore(t)
	store.RecordDiscovery("Technology", "Bad", "not-a-url", "Example", "", "2024-01-15")

	resolver := &fakeResolver{}
	stage := NewStage(store, resolver,
		&fakeFetcher{body: "<html>body</html>"},
		&fakeExtractor{text: longText()},
		1, 0)

	result, _ := stage.Run(context.Background(), "2024-01-15")

	if result.Failures[OutcomeInvalidURL] != 1 {
		t.Errorf("Expected 1 invalid url failure, got %+v", result.Failures)
	}
	if resolver.calls != 0 {
		t.Errorf("Expected resolver to not be called for invalid url, got %d calls", resolver.calls)
	}
}

func TestRunReusesExistingResolvedURL(t *testing.T) {
	store := newTestStore(t)
	store.RecordDiscovery("Technology", "Pre-resolved", "https://news.example.com/pre", "Example", "", "2024-01-15")
	store.SetResolvedURL("https://news.example.com/pre", "https://real.example.com/pre")

	resolver := &fakeResolver{}
	stage := NewStage(store, resolver,
		&fakeFetcher{body: "<html>body</html>"},
		&fakeExtractor{text: longText()},
		1, 0)

	result, _ := stage.Run(context.Background(), "2024-01-15")

	if result.Scraped != 1 {
		t.Errorf("Expected 1 scraped, got %d", result.Scraped)
	}
	if resolver.calls != 0 {
		t.Errorf("Expected resolver to be skipped when resolved url exists, got %d calls", resolver.calls)
	}
}

func TestParallelMatchesSerialOutcome(t *testing.T) {
	run := func(workers int) (Result, database.DateStats) {
		store := newTestStore(t)
		seedArticles(t, store, 6)

		stage := NewStage(store,
			&fakeResolver{failOn: map[string]bool{"https://news.example.com/article-4": true}},
			&fakeFetcher{body: "<html>body</html>"},
			&fakeExtractor{text: longText()},
			workers, 0)

		result, err := stage.Run(context.Background(), "2024-01-15")
		if err != nil {
			t.Fatalf("Unexpected error with %d workers: %v", workers, err)
		}
		return result, store.StatsForDate("2024-01-15")
	}

	serialResult, serialStats := run(1)
	parallelResult, parallelStats := run(4)

	if serialResult.Scraped != parallelResult.Scraped || serialResult.Processed != parallelResult.Processed {
		t.Errorf("Expected identical counters, serial %+v parallel %+v", serialResult, parallelResult)
	}
	if serialStats != parallelStats {
		t.Errorf("Expected identical stored state, serial %+v parallel %+v", serialStats, parallelStats)
	}
}

func TestRunWithNothingPending(t *testing.T) {
	stage := NewStage(newTestStore(t), &fakeResolver{}, &fakeFetcher{}, &fakeExtractor{}, 1, 0)

	result, err := stage.Run(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("Expected 0 processed, got %d", result.Processed)
	}
}
