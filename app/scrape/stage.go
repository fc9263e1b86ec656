package scrape

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/yourdaily/daily-podcaster/app/database"
)

// Outcome classifies what happened to a single article. Failures are
// independent; one article's outcome never affects the rest of the batch.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeInvalidURL    Outcome = "invalid_url"
	OutcomeResolveFailed Outcome = "resolve_failed"
	OutcomeFetchFailed   Outcome = "fetch_failed"
	OutcomeExtractFailed Outcome = "extract_failed"
	OutcomeTooShort      Outcome = "too_short"
	OutcomeStoreFailed   Outcome = "store_failed"
)

// Result aggregates per-article outcomes for one stage run.
type Result struct {
	Processed int
	Scraped   int
	Failures  map[Outcome]int
}

// Stage resolves, fetches, and extracts every pending article for the
// target date. Work fans out across a bounded worker pool; the serial
// path (one worker) produces identical stored state.
type Stage struct {
	store     *database.Store
	resolver  Resolver
	fetcher   Fetcher
	extractor Extractor
	workers   int
	delay     time.Duration
}

func NewStage(store *database.Store, resolver Resolver, fetcher Fetcher, extractor Extractor, workers int, delay time.Duration) *Stage {
	if workers <= 0 {
		workers = min(runtime.NumCPU(), 4)
	}
	return &Stage{
		store:     store,
		resolver:  resolver,
		fetcher:   fetcher,
		extractor: extractor,
		workers:   workers,
		delay:     delay,
	}
}

// Run processes every article pending for date. The request delay
// applies between consecutive articles on each worker.
func (s *Stage) Run(ctx context.Context, date string) (Result, error) {
	result := Result{Failures: make(map[Outcome]int)}

	pending := s.store.PendingForDate(date)
	if len(pending) == 0 {
		slog.Info("No pending articles to scrape", "date", date)
		return result, nil
	}

	startTime := time.Now()
	workers := min(s.workers, len(pending))

	jobs := make(chan database.SearchResult)
	outcomes := make(chan Outcome, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for article := range jobs {
				if !first && s.delay > 0 {
					time.Sleep(s.delay)
				}
				first = false
				outcomes <- s.processArticle(ctx, article)
			}
		}()
	}

	for _, article := range pending {
		jobs <- article
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		result.Processed++
		if outcome == OutcomeOK {
			result.Scraped++
		} else {
			result.Failures[outcome]++
		}
	}

	slog.Info("Scraping completed",
		"date", date,
		"processed", result.Processed,
		"scraped", result.Scraped,
		"failed", result.Processed-result.Scraped,
		"workers", workers,
		"duration", time.Since(startTime))

	return result, nil
}

func (s *Stage) processArticle(ctx context.Context, article database.SearchResult) Outcome {
	if !ValidURL(article.SourceURL) {
		slog.Error("Invalid source url", "url", article.SourceURL)
		return OutcomeInvalidURL
	}

	resolved := article.ResolvedURL
	if resolved == "" {
		var err error
		resolved, err = s.resolver.Resolve(ctx, article.SourceURL)
		if err != nil || resolved == "" {
			slog.Error("Failed to resolve article url", "url", article.SourceURL, "error", err)
			return OutcomeResolveFailed
		}
		if !s.store.SetResolvedURL(article.SourceURL, resolved) {
			slog.Warn("Resolved url not persisted", "source_url", article.SourceURL)
		}
	}

	if !ValidURL(resolved) {
		slog.Error("Invalid resolved url", "url", resolved)
		return OutcomeInvalidURL
	}

	html, err := s.fetcher.Fetch(ctx, resolved)
	if err != nil || html == "" {
		slog.Error("Failed to fetch article", "url", resolved, "error", err)
		return OutcomeFetchFailed
	}

	text, err := s.extractor.Extract(ctx, html, resolved)
	if err != nil {
		slog.Error("Failed to extract article content", "url", resolved, "error", err)
		return OutcomeExtractFailed
	}

	text = PostProcess(text)
	if len(text) < MinContentLength {
		slog.Warn("Extracted content too short", "url", resolved, "length", len(text))
		return OutcomeTooShort
	}

	if !s.store.UpsertArtifact(article.SourceURL, resolved, text, "", "") {
		return OutcomeStoreFailed
	}

	slog.Debug("Article scraped", "url", resolved, "length", len(text))
	return OutcomeOK
}
