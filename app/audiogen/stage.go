package audiogen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yourdaily/daily-podcaster/app/database"
	"github.com/yourdaily/daily-podcaster/app/topics"
)

// Result holds the per-run audio generation counters.
type Result struct {
	TopicsSynthesized int
	TopicsFailed      int
	ArticlesMarked    int
	OutputPath        string
}

// Stage turns each topic's summary into a speech clip and concatenates
// intro, topic clips, and outro into one dated digest file under the
// temp audio directory.
type Stage struct {
	store   *database.Store
	tts     TTSClient
	muxer   Muxer
	tempDir string
}

func NewStage(store *database.Store, tts TTSClient, muxer Muxer, tempDir string) *Stage {
	return &Stage{store: store, tts: tts, muxer: muxer, tempDir: tempDir}
}

// Run synthesizes the digest for date. A missing TTS client fails the
// stage outright; individual topic failures are tolerated and counted.
func (s *Stage) Run(ctx context.Context, date string) (Result, error) {
	var result Result

	if s.tts == nil {
		return result, fmt.Errorf("TTS client is not available")
	}

	articles := s.store.ArticlesReadyForAudio(date)
	if len(articles) == 0 {
		slog.Info("No articles ready for audio", "date", date)
		return result, nil
	}

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create temp audio directory: %w", err)
	}

	startTime := time.Now()

	summaries, members := reduceByTopic(articles)
	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	intro, err := s.tts.Synthesize(ctx, IntroScript(date))
	if err != nil {
		return result, fmt.Errorf("failed to synthesize intro: %w", err)
	}
	outro, err := s.tts.Synthesize(ctx, OutroScript())
	if err != nil {
		return result, fmt.Errorf("failed to synthesize outro: %w", err)
	}

	gap, err := s.tts.SynthesizeSSML(ctx, gapSSML)
	if err != nil {
		slog.Warn("Failed to synthesize silence gap, joining without gaps", "error", err)
		gap = nil
	}

	clips := [][]byte{intro}

	for _, topic := range names {
		script := TopicScript(topics.DisplayName(topic), summaries[topic])

		clip, err := s.tts.Synthesize(ctx, script)
		if err != nil {
			slog.Error("Topic synthesis failed", "topic", topic, "error", err)
			result.TopicsFailed++
			continue
		}

		clipPath := filepath.Join(s.tempDir, fmt.Sprintf("topic_%s_%s.mp3", slugify(topic), dateToken(date)))
		if err := os.WriteFile(clipPath, clip, 0o644); err != nil {
			slog.Error("Failed to write topic clip", "topic", topic, "error", err)
			result.TopicsFailed++
			continue
		}

		for _, resolvedURL := range members[topic] {
			if s.store.MarkAudioReady(resolvedURL, clipPath) {
				result.ArticlesMarked++
			}
		}

		clips = append(clips, clip)
		result.TopicsSynthesized++
	}

	if result.TopicsSynthesized == 0 {
		return result, fmt.Errorf("no topic audio could be synthesized")
	}

	clips = append(clips, outro)

	digest := s.muxer.Run(clips, gap)
	outputPath := filepath.Join(s.tempDir, DigestFileName(date))
	if err := os.WriteFile(outputPath, digest, 0o644); err != nil {
		return result, fmt.Errorf("failed to write digest file: %w", err)
	}

	result.OutputPath = outputPath

	slog.Info("Audio generation completed",
		"date", date,
		"topics_synthesized", result.TopicsSynthesized,
		"topics_failed", result.TopicsFailed,
		"articles_marked", result.ArticlesMarked,
		"output", outputPath,
		"duration", time.Since(startTime))

	return result, nil
}

// DigestFileName returns the dated digest file name, e.g.
// daily_digest_2024_01_15.mp3.
func DigestFileName(date string) string {
	return fmt.Sprintf("daily_digest_%s.mp3", dateToken(date))
}

func dateToken(date string) string {
	return strings.ReplaceAll(date, "-", "_")
}

func slugify(topic string) string {
	slug := strings.ToLower(strings.TrimSpace(topic))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, slug)
	return strings.Trim(slug, "_")
}

// reduceByTopic keeps the first non-empty summary per topic and collects
// every member's resolved URL.
func reduceByTopic(articles []database.ArtifactWithTopic) (map[string]string, map[string][]string) {
	summaries := make(map[string]string)
	members := make(map[string][]string)

	for _, a := range articles {
		topic := a.Topic
		if topic == "" {
			topic = topics.DefaultTopic
		}
		if _, ok := summaries[topic]; !ok && a.SummaryText != "" {
			summaries[topic] = a.SummaryText
		}
		if a.ResolvedURL != "" {
			members[topic] = append(members[topic], a.ResolvedURL)
		}
	}

	// A topic whose every summary is empty has nothing to narrate.
	for topic := range members {
		if _, ok := summaries[topic]; !ok {
			delete(members, topic)
		}
	}

	return summaries, members
}
