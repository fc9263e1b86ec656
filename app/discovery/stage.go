package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourdaily/daily-podcaster/app/database"
	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

// Result holds the per-run discovery counters.
type Result struct {
	TopicsSearched int
	ArticlesFound  int
	ArticlesStored int
}

// Stage discovers candidate articles per topic for the target date and
// records the new ones.
type Stage struct {
	store  *database.Store
	client SearchClient
	topics []string
}

func NewStage(store *database.Store, client SearchClient, topics []string) *Stage {
	return &Stage{store: store, client: client, topics: topics}
}

// Run searches every configured topic and stores the entries published on
// date that are not yet known. A topic-level search failure yields zero
// results for that topic and processing continues. An empty topic list
// fails the stage.
func (s *Stage) Run(ctx context.Context, date string) (Result, error) {
	var result Result

	if len(s.topics) == 0 {
		return result, fmt.Errorf("no topics found")
	}

	startTime := time.Now()

	for _, topic := range s.topics {
		result.TopicsSearched++

		items, err := s.client.Search(ctx, topic)
		if err != nil {
			slog.Error("Topic search failed", "topic", topic, "error", err)
			continue
		}

		for _, item := range items {
			published, err := timeutil.ParseFeedDate(item.PublishedRaw)
			if err != nil {
				slog.Debug("Skipping entry with unparseable date", "topic", topic, "raw_date", item.PublishedRaw)
				continue
			}
			if published != date {
				continue
			}

			result.ArticlesFound++

			if s.store.ArticleIsKnown(item.Link) {
				continue
			}
			if s.store.RecordDiscovery(topic, item.Title, item.Link, item.Source, item.PublishedRaw, published) {
				result.ArticlesStored++
			}
		}
	}

	slog.Info("Discovery completed",
		"date", date,
		"topics_searched", result.TopicsSearched,
		"articles_found", result.ArticlesFound,
		"articles_stored", result.ArticlesStored,
		"duration", time.Since(startTime))

	return result, nil
}
