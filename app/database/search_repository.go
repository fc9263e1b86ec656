package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// SearchRepository handles database operations for the search index store.
type SearchRepository struct {
	db *DB
}

func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Exists reports whether a row with the given source URL is already stored.
func (r *SearchRepository) Exists(sourceURL string) (bool, error) {
	var one int
	err := r.db.QueryRow(`
		SELECT 1 FROM search_results WHERE source_url = ?
	`, sourceURL).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check search result existence: %w", err)
	}
	return true, nil
}

// Insert stores a discovered article. A conflicting source_url is a
// silent no-op.
func (r *SearchRepository) Insert(result *SearchResult) error {
	_, err := r.db.Exec(`
		INSERT INTO search_results (topic, title, source_url, source_name, source_published_raw, published_date, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now', 'localtime'))
		ON CONFLICT (source_url) DO NOTHING
	`, result.Topic, result.Title, result.SourceURL, result.SourceName, result.SourcePublishedRaw, result.PublishedDate)

	if err != nil {
		return fmt.Errorf("failed to insert search result: %w", err)
	}

	return nil
}

// SetResolvedURL records the real destination URL for a discovered article.
func (r *SearchRepository) SetResolvedURL(sourceURL, resolvedURL string) error {
	res, err := r.db.Exec(`
		UPDATE search_results SET resolved_url = ? WHERE source_url = ?
	`, resolvedURL, sourceURL)
	if err != nil {
		return fmt.Errorf("failed to set resolved url: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no search result with source url %s", sourceURL)
	}

	return nil
}

// ListByDate returns all rows with the given published date, most recently
// discovered first. The ordering is deterministic: ties on discovered_at
// break by id descending.
func (r *SearchRepository) ListByDate(date string) ([]SearchResult, error) {
	rows, err := r.db.Query(`
		SELECT id, topic, title, source_url, COALESCE(resolved_url, ''),
		       COALESCE(source_name, ''), COALESCE(source_published_raw, ''),
		       published_date, discovered_at
		FROM search_results
		WHERE published_date = ?
		ORDER BY discovered_at DESC, id DESC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query search results: %w", err)
	}
	defer rows.Close()

	return scanSearchResults(rows)
}

// CountByDate returns the number of rows discovered for the given date.
func (r *SearchRepository) CountByDate(date string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM search_results WHERE published_date = ?
	`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count search results: %w", err)
	}
	return count, nil
}

// DeleteByDate removes all rows with the given published date and returns
// the identities of the removed rows so the caller can cascade into the
// article store.
func (r *SearchRepository) DeleteByDate(date string) ([]ArticleIdentity, error) {
	identities, err := r.identitiesWhere("published_date = ?", date)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(`DELETE FROM search_results WHERE published_date = ?`, date); err != nil {
		return nil, fmt.Errorf("failed to delete search results: %w", err)
	}

	return identities, nil
}

// DeleteOlderThan removes all rows whose published date sorts before the
// cutoff timestamp and returns the identities of the removed rows.
func (r *SearchRepository) DeleteOlderThan(cutoff string) ([]ArticleIdentity, error) {
	identities, err := r.identitiesWhere("published_date < ?", cutoff)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(`DELETE FROM search_results WHERE published_date < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete old search results: %w", err)
	}

	return identities, nil
}

func (r *SearchRepository) identitiesWhere(where string, args ...any) ([]ArticleIdentity, error) {
	rows, err := r.db.Query(fmt.Sprintf(`
		SELECT source_url, COALESCE(resolved_url, '') FROM search_results WHERE %s
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search result identities: %w", err)
	}
	defer rows.Close()

	var identities []ArticleIdentity
	for rows.Next() {
		var id ArticleIdentity
		if err := rows.Scan(&id.SourceURL, &id.ResolvedURL); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, id)
	}

	return identities, rows.Err()
}

func scanSearchResults(rows *sql.Rows) ([]SearchResult, error) {
	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		err := rows.Scan(&sr.ID, &sr.Topic, &sr.Title, &sr.SourceURL, &sr.ResolvedURL,
			&sr.SourceName, &sr.SourcePublishedRaw, &sr.PublishedDate, &sr.DiscoveredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
