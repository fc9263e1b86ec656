package database

// SearchResult is one discovered article: the catalog side of the store.
// PublishedDate is always canonical YYYY-MM-DD; SourcePublishedRaw keeps
// the original feed string for debugging.
type SearchResult struct {
	ID                 int64
	Topic              string
	Title              string
	SourceURL          string
	ResolvedURL        string // empty until resolution has happened
	SourceName         string
	SourcePublishedRaw string
	PublishedDate      string
	DiscoveredAt       string
}

// Identity returns the two-phase URL key for this row.
func (r *SearchResult) Identity() ArticleIdentity {
	return ArticleIdentity{SourceURL: r.SourceURL, ResolvedURL: r.ResolvedURL}
}

// Artifact is the work log for one article's resolved URL: clean text,
// summary, and audio state accumulated across pipeline stages. Absent
// values are represented as empty strings; the columns are NULL in the
// store.
type Artifact struct {
	ID          int64
	SourceURL   string
	ResolvedURL string
	CleanText   string
	SummaryText string
	AudioPath   string
	AudioReady  bool
	UpdatedAt   string
}

// Identity returns the two-phase URL key for this row.
func (a *Artifact) Identity() ArticleIdentity {
	return ArticleIdentity{SourceURL: a.SourceURL, ResolvedURL: a.ResolvedURL}
}

// ArtifactWithTopic is an Artifact joined back to its catalog row. Topic,
// Title and SourceName come from the SearchResult side.
type ArtifactWithTopic struct {
	Artifact
	Topic      string
	Title      string
	SourceName string
}

// ArticleIdentity is the two-phase key joining the catalog and the work
// log. SourceURL is the link as discovered; ResolvedURL is the real
// destination once resolution has happened. Either leg may be empty, but
// never both for a stored row.
type ArticleIdentity struct {
	SourceURL   string
	ResolvedURL string
}

// Matches reports whether url equals either leg of the identity.
func (id ArticleIdentity) Matches(url string) bool {
	if url == "" {
		return false
	}
	return url == id.SourceURL || url == id.ResolvedURL
}

// Overlaps reports whether the two identities share any non-empty leg.
func (id ArticleIdentity) Overlaps(other ArticleIdentity) bool {
	return id.Matches(other.SourceURL) || id.Matches(other.ResolvedURL)
}

// Key returns the canonical identity string: the resolved URL once known,
// the source URL before that.
func (id ArticleIdentity) Key() string {
	if id.ResolvedURL != "" {
		return id.ResolvedURL
	}
	return id.SourceURL
}

// DateStats holds the per-date progress counters. Each counter is a
// subset of the one before it: Artifacts >= WithText >= WithSummary >=
// WithAudio.
type DateStats struct {
	Date        string `json:"date"`
	Discovered  int    `json:"discovered"`
	Artifacts   int    `json:"artifacts"`
	WithText    int    `json:"with_text"`
	WithSummary int    `json:"with_summary"`
	WithAudio   int    `json:"with_audio"`
}

// PurgeResult reports how many rows a purge removed from each table.
type PurgeResult struct {
	SearchDeleted   int64
	ArtifactDeleted int64
}
