package summarize

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/yourdaily/daily-podcaster/app/database"
	"github.com/yourdaily/daily-podcaster/app/topics"
)

// Result holds the per-run summarization counters.
type Result struct {
	TopicsSummarized int
	TopicsFailed     int
	ArticlesUpdated  int
}

// Stage groups the day's cleaned articles by topic, generates one summary
// per group, and writes it onto every member artifact.
type Stage struct {
	store  *database.Store
	client Client
	delay  time.Duration
}

func NewStage(store *database.Store, client Client, delay time.Duration) *Stage {
	return &Stage{store: store, client: client, delay: delay}
}

// Run summarizes every topic group for date. A failed topic does not
// abort the others. The inter-call delay applies between topics, never
// after the last one.
func (s *Stage) Run(ctx context.Context, date string) (Result, error) {
	var result Result

	ready := s.store.ArticlesReadyForSummary(date)
	if len(ready) == 0 {
		slog.Info("No articles ready for summarization", "date", date)
		return result, nil
	}

	groups := groupByTopic(ready)
	names := sortedTopics(groups)
	startTime := time.Now()

	for i, topic := range names {
		if i > 0 && s.delay > 0 {
			time.Sleep(s.delay)
		}

		group := groups[topic]
		prompt := BuildPrompt(topic, group)

		summary, err := s.client.Summarize(ctx, prompt)
		if err != nil {
			slog.Error("Topic summarization failed", "topic", topic, "articles", len(group), "error", err)
			result.TopicsFailed++
			continue
		}

		// Re-read the ready set at write time. The generation call takes
		// long enough that the member set may have been mutated.
		updated := 0
		for _, a := range s.store.ArticlesReadyForSummary(date) {
			if normalizeTopic(a.Topic) != topic {
				continue
			}
			if a.ResolvedURL == "" {
				slog.Warn("Skipping artifact without resolved url", "article", a.Identity().Key())
				continue
			}
			if s.store.ApplySummary(a.ResolvedURL, summary) {
				updated++
			}
		}

		result.TopicsSummarized++
		result.ArticlesUpdated += updated
		slog.Info("Topic summarized", "topic", topic, "articles_updated", updated)
	}

	slog.Info("Summarization completed",
		"date", date,
		"topics_summarized", result.TopicsSummarized,
		"topics_failed", result.TopicsFailed,
		"articles_updated", result.ArticlesUpdated,
		"duration", time.Since(startTime))

	return result, nil
}

func normalizeTopic(topic string) string {
	if topic == "" {
		return topics.DefaultTopic
	}
	return topic
}

func groupByTopic(articles []database.ArtifactWithTopic) map[string][]database.ArtifactWithTopic {
	groups := make(map[string][]database.ArtifactWithTopic)
	for _, a := range articles {
		key := normalizeTopic(a.Topic)
		groups[key] = append(groups[key], a)
	}
	return groups
}

func sortedTopics(groups map[string][]database.ArtifactWithTopic) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
