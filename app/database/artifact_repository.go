package database

import (
	"database/sql"
	"fmt"
)

// ArtifactRepository handles database operations for the article data store.
type ArtifactRepository struct {
	db *DB
}

func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Upsert inserts or updates an artifact keyed by resolved URL. Empty
// string fields mean "not provided" and never overwrite stored values.
func (r *ArtifactRepository) Upsert(a *Artifact) error {
	if a.ResolvedURL == "" {
		return fmt.Errorf("resolved url is required")
	}

	_, err := r.db.Exec(`
		INSERT INTO article_artifacts (source_url, resolved_url, clean_text, summary_text, audio_path, updated_at)
		VALUES (NULLIF(?, ''), ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), datetime('now', 'localtime'))
		ON CONFLICT (resolved_url) DO UPDATE SET
			source_url = COALESCE(NULLIF(excluded.source_url, ''), source_url),
			clean_text = COALESCE(NULLIF(excluded.clean_text, ''), clean_text),
			summary_text = COALESCE(NULLIF(excluded.summary_text, ''), summary_text),
			audio_path = COALESCE(NULLIF(excluded.audio_path, ''), audio_path),
			updated_at = excluded.updated_at
	`, a.SourceURL, a.ResolvedURL, a.CleanText, a.SummaryText, a.AudioPath)

	if err != nil {
		return fmt.Errorf("failed to upsert artifact: %w", err)
	}

	return nil
}

// GetByURL returns the artifact whose source or resolved URL equals url,
// or nil when none exists.
func (r *ArtifactRepository) GetByURL(url string) (*Artifact, error) {
	var a Artifact
	err := r.db.QueryRow(`
		SELECT id, COALESCE(source_url, ''), resolved_url, COALESCE(clean_text, ''),
		       COALESCE(summary_text, ''), COALESCE(audio_path, ''), audio_ready, updated_at
		FROM article_artifacts
		WHERE source_url = ? OR resolved_url = ?
	`, url, url).Scan(&a.ID, &a.SourceURL, &a.ResolvedURL, &a.CleanText,
		&a.SummaryText, &a.AudioPath, &a.AudioReady, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return &a, nil
}

// ListAll returns every artifact row. The table stays small because rows
// older than the retention horizon are purged each run.
func (r *ArtifactRepository) ListAll() ([]Artifact, error) {
	rows, err := r.db.Query(`
		SELECT id, COALESCE(source_url, ''), resolved_url, COALESCE(clean_text, ''),
		       COALESCE(summary_text, ''), COALESCE(audio_path, ''), audio_ready, updated_at
		FROM article_artifacts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		err := rows.Scan(&a.ID, &a.SourceURL, &a.ResolvedURL, &a.CleanText,
			&a.SummaryText, &a.AudioPath, &a.AudioReady, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, rows.Err()
}

// SetSummary writes the summary text for the artifact with the given
// resolved URL. The update refuses to touch rows without clean text so
// that a summary can never exist without its source text.
func (r *ArtifactRepository) SetSummary(resolvedURL, summary string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE article_artifacts
		SET summary_text = ?, updated_at = datetime('now', 'localtime')
		WHERE resolved_url = ? AND clean_text IS NOT NULL AND clean_text != ''
	`, summary, resolvedURL)
	if err != nil {
		return false, fmt.Errorf("failed to set summary: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// MarkAudioReady records the audio path and flips the ready flag for the
// artifact with the given resolved URL.
func (r *ArtifactRepository) MarkAudioReady(resolvedURL, audioPath string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE article_artifacts
		SET audio_path = ?, audio_ready = 1, updated_at = datetime('now', 'localtime')
		WHERE resolved_url = ?
	`, audioPath, resolvedURL)
	if err != nil {
		return false, fmt.Errorf("failed to mark audio ready: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteMatching removes artifacts whose source or resolved URL appears
// in urls and returns the number of deleted rows.
func (r *ArtifactRepository) DeleteMatching(urls []string) (int64, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(urls)*2)
	for _, u := range urls {
		args = append(args, u)
	}
	for _, u := range urls {
		args = append(args, u)
	}

	in := placeholders(len(urls))
	res, err := r.db.Exec(fmt.Sprintf(`
		DELETE FROM article_artifacts
		WHERE source_url IN (%s) OR resolved_url IN (%s)
	`, in, in), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete artifacts: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return deleted, nil
}
