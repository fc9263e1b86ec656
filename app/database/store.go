package database

import (
	"log/slog"

	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

// Store is the single authority for durable pipeline state. It fronts the
// two repositories with a soft-failure contract: operations never
// propagate storage errors to callers. Failures are logged and surfaced
// as false or an empty collection, so a bad row or connection degrades a
// stage instead of crashing it.
//
// The two tables live in separate database files. Queries that need both
// sides join in memory on URL identity: the date-scoped row sets are
// small and sqlite cross-file joins would pin the work to a single pooled
// connection.
type Store struct {
	search    *SearchRepository
	artifacts *ArtifactRepository
}

func NewStore(searchDB, articleDB *DB) *Store {
	return &Store{
		search:    NewSearchRepository(searchDB),
		artifacts: NewArtifactRepository(articleDB),
	}
}

// ArticleIsKnown reports whether the source URL was already discovered.
// On storage failure it returns false: the re-insert attempt that follows
// no-ops on the unique constraint.
func (s *Store) ArticleIsKnown(sourceURL string) bool {
	known, err := s.search.Exists(sourceURL)
	if err != nil {
		slog.Error("Failed to check known article", "source_url", sourceURL, "error", err)
		return false
	}
	return known
}

// RecordDiscovery stores a discovered article. A duplicate source URL is
// a silent no-op success.
func (s *Store) RecordDiscovery(topic, title, sourceURL, sourceName, rawDate, publishedDate string) bool {
	err := s.search.Insert(&SearchResult{
		Topic:              topic,
		Title:              title,
		SourceURL:          sourceURL,
		SourceName:         sourceName,
		SourcePublishedRaw: rawDate,
		PublishedDate:      publishedDate,
	})
	if err != nil {
		slog.Error("Failed to record discovery", "source_url", sourceURL, "error", err)
		return false
	}
	return true
}

// SetResolvedURL records the real destination URL for a discovered article.
func (s *Store) SetResolvedURL(sourceURL, resolvedURL string) bool {
	if err := s.search.SetResolvedURL(sourceURL, resolvedURL); err != nil {
		slog.Error("Failed to set resolved url", "source_url", sourceURL, "error", err)
		return false
	}
	return true
}

// PendingForDate returns the discovered articles for date that have no
// artifact yet, most recently discovered first.
func (s *Store) PendingForDate(date string) []SearchResult {
	results, err := s.search.ListByDate(date)
	if err != nil {
		slog.Error("Failed to list search results", "date", date, "error", err)
		return nil
	}

	artifacts, err := s.artifacts.ListAll()
	if err != nil {
		slog.Error("Failed to list artifacts", "error", err)
		return nil
	}

	var pending []SearchResult
	for _, sr := range results {
		if findArtifact(artifacts, sr.Identity()) == nil {
			pending = append(pending, sr)
		}
	}
	return pending
}

// UpsertArtifact creates or updates the work-log row for resolvedURL.
// The resolved URL is mandatory; calling without one is a caller error.
// A row seeded with only a resolved URL (no source URL) is accepted.
func (s *Store) UpsertArtifact(sourceURL, resolvedURL, cleanText, summaryText, audioPath string) bool {
	if resolvedURL == "" {
		slog.Error("Refusing artifact upsert without resolved url", "source_url", sourceURL)
		return false
	}

	err := s.artifacts.Upsert(&Artifact{
		SourceURL:   sourceURL,
		ResolvedURL: resolvedURL,
		CleanText:   cleanText,
		SummaryText: summaryText,
		AudioPath:   audioPath,
	})
	if err != nil {
		slog.Error("Failed to upsert artifact", "resolved_url", resolvedURL, "error", err)
		return false
	}
	return true
}

// ApplySummary writes summary text onto the artifact with the given
// resolved URL. Rows without clean text are refused: a summary must never
// exist without its source text.
func (s *Store) ApplySummary(resolvedURL, summary string) bool {
	applied, err := s.artifacts.SetSummary(resolvedURL, summary)
	if err != nil {
		slog.Error("Failed to apply summary", "resolved_url", resolvedURL, "error", err)
		return false
	}
	if !applied {
		slog.Warn("Summary not applied, no artifact with clean text", "resolved_url", resolvedURL)
	}
	return applied
}

// ArticlesReadyForSummary returns artifacts with clean text but no
// summary, joined to a catalog row published on date.
func (s *Store) ArticlesReadyForSummary(date string) []ArtifactWithTopic {
	return s.joinedForDate(date, func(a *Artifact) bool {
		return a.CleanText != "" && a.SummaryText == ""
	})
}

// ArticlesReadyForAudio returns artifacts with a summary but no audio,
// joined to a catalog row published on date.
func (s *Store) ArticlesReadyForAudio(date string) []ArtifactWithTopic {
	return s.joinedForDate(date, func(a *Artifact) bool {
		return a.SummaryText != "" && a.AudioPath == ""
	})
}

// MarkAudioReady records the audio path for resolvedURL and flips the
// ready flag. An empty path is a caller error: readiness implies a path.
func (s *Store) MarkAudioReady(resolvedURL, audioPath string) bool {
	if audioPath == "" {
		slog.Error("Refusing audio ready mark without path", "resolved_url", resolvedURL)
		return false
	}

	marked, err := s.artifacts.MarkAudioReady(resolvedURL, audioPath)
	if err != nil {
		slog.Error("Failed to mark audio ready", "resolved_url", resolvedURL, "error", err)
		return false
	}
	return marked
}

// StatsForDate returns the per-date progress counters. Each count
// degrades to zero on storage failure.
func (s *Store) StatsForDate(date string) DateStats {
	stats := DateStats{Date: date}

	discovered, err := s.search.CountByDate(date)
	if err != nil {
		slog.Error("Failed to count discoveries", "date", date, "error", err)
	} else {
		stats.Discovered = discovered
	}

	results, err := s.search.ListByDate(date)
	if err != nil {
		slog.Error("Failed to list search results", "date", date, "error", err)
		return stats
	}

	artifacts, err := s.artifacts.ListAll()
	if err != nil {
		slog.Error("Failed to list artifacts", "error", err)
		return stats
	}

	for _, sr := range results {
		a := findArtifact(artifacts, sr.Identity())
		if a == nil {
			continue
		}
		stats.Artifacts++
		if a.CleanText != "" {
			stats.WithText++
		}
		if a.SummaryText != "" {
			stats.WithSummary++
		}
		if a.AudioPath != "" {
			stats.WithAudio++
		}
	}

	return stats
}

// PurgeDate deletes all catalog rows published on date, then the
// artifacts whose join partner is gone.
func (s *Store) PurgeDate(date string) PurgeResult {
	identities, err := s.search.DeleteByDate(date)
	if err != nil {
		slog.Error("Failed to purge search results", "date", date, "error", err)
		return PurgeResult{}
	}
	return s.cascadeArtifacts(identities)
}

// PurgeOlderThan deletes rows older than days days from both tables. The
// cutoff carries a time component, so rows dated exactly days days ago
// are purged as well.
func (s *Store) PurgeOlderThan(days int) PurgeResult {
	cutoff := timeutil.CutoffTimestamp(days)

	identities, err := s.search.DeleteOlderThan(cutoff)
	if err != nil {
		slog.Error("Failed to purge old search results", "cutoff", cutoff, "error", err)
		return PurgeResult{}
	}
	return s.cascadeArtifacts(identities)
}

func (s *Store) cascadeArtifacts(identities []ArticleIdentity) PurgeResult {
	result := PurgeResult{SearchDeleted: int64(len(identities))}

	urls := make([]string, 0, len(identities)*2)
	for _, id := range identities {
		if id.SourceURL != "" {
			urls = append(urls, id.SourceURL)
		}
		if id.ResolvedURL != "" {
			urls = append(urls, id.ResolvedURL)
		}
	}

	deleted, err := s.artifacts.DeleteMatching(urls)
	if err != nil {
		slog.Error("Failed to cascade artifact purge", "error", err)
		return result
	}

	result.ArtifactDeleted = deleted
	return result
}

func (s *Store) joinedForDate(date string, ready func(*Artifact) bool) []ArtifactWithTopic {
	results, err := s.search.ListByDate(date)
	if err != nil {
		slog.Error("Failed to list search results", "date", date, "error", err)
		return nil
	}

	artifacts, err := s.artifacts.ListAll()
	if err != nil {
		slog.Error("Failed to list artifacts", "error", err)
		return nil
	}

	var joined []ArtifactWithTopic
	seen := make(map[int64]bool)
	for _, sr := range results {
		a := findArtifact(artifacts, sr.Identity())
		if a == nil || seen[a.ID] || !ready(a) {
			continue
		}
		seen[a.ID] = true
		joined = append(joined, ArtifactWithTopic{
			Artifact:   *a,
			Topic:      sr.Topic,
			Title:      sr.Title,
			SourceName: sr.SourceName,
		})
	}
	return joined
}

func findArtifact(artifacts []Artifact, id ArticleIdentity) *Artifact {
	for i := range artifacts {
		if artifacts[i].Identity().Overlaps(id) {
			return &artifacts[i]
		}
	}
	return nil
}
