package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/yourdaily/daily-podcaster/app/api"
	"github.com/yourdaily/daily-podcaster/app/audiogen"
	"github.com/yourdaily/daily-podcaster/app/cfg"
	"github.com/yourdaily/daily-podcaster/app/cleaner"
	"github.com/yourdaily/daily-podcaster/app/database"
	"github.com/yourdaily/daily-podcaster/app/discovery"
	"github.com/yourdaily/daily-podcaster/app/pipeline"
	"github.com/yourdaily/daily-podcaster/app/publish"
	"github.com/yourdaily/daily-podcaster/app/scrape"
	"github.com/yourdaily/daily-podcaster/app/summarize"
	"github.com/yourdaily/daily-podcaster/app/timeutil"
	"github.com/yourdaily/daily-podcaster/app/topics"
)

const usage = `Commands:
  discover    Find new articles for the target date
  scrape      Resolve, fetch, and extract pending articles
  summarize   Generate per-topic summaries
  audio       Synthesize the daily digest audio
  publish     Publish the digest and regenerate the feed
  cleanup     Remove expired files and store rows
  run         Execute the full pipeline
  stats       Show processing counters for the target date
  serve       Serve the podcast feed and audio over HTTP

Options:
  --date YYYY-MM-DD        Target date (default: yesterday)
  --purge-date YYYY-MM-DD  cleanup: remove store rows for one exact date
  --days N                 stats: report the last N dates, today inclusive`

func main() {
	appConfig, rest, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	setupLogging(appConfig.Debug)

	command, opts, err := parseCommand(rest)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	app, err := newApp(appConfig)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx := context.Background()

	if err := app.dispatch(ctx, command, opts); err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// cmdOptions carries the optional flags that follow the subcommand.
type cmdOptions struct {
	date      string
	purgeDate string
	days      int
}

// parseCommand extracts the subcommand and its options from the
// positional arguments left over after flag parsing.
func parseCommand(rest []string) (string, cmdOptions, error) {
	opts := cmdOptions{date: timeutil.Yesterday(), days: 1}

	if len(rest) == 0 {
		return "", opts, fmt.Errorf("no command given")
	}

	command := rest[0]

	for i := 1; i < len(rest); i++ {
		name, value, hasValue := strings.Cut(rest[i], "=")
		switch name {
		case "--date", "--purge-date", "--days":
		default:
			return "", opts, fmt.Errorf("unexpected argument %q", rest[i])
		}

		if !hasValue {
			if i+1 >= len(rest) {
				return "", opts, fmt.Errorf("missing value for %s", name)
			}
			value = rest[i+1]
			i++
		}

		switch name {
		case "--date":
			opts.date = value
		case "--purge-date":
			opts.purgeDate = value
		case "--days":
			days, err := strconv.Atoi(value)
			if err != nil || days < 1 {
				return "", opts, fmt.Errorf("invalid --days value %q", value)
			}
			opts.days = days
		}
	}

	if !timeutil.ValidDate(opts.date) {
		return "", opts, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", opts.date)
	}
	if opts.purgeDate != "" && !timeutil.ValidDate(opts.purgeDate) {
		return "", opts, fmt.Errorf("invalid purge date %q, expected YYYY-MM-DD", opts.purgeDate)
	}

	return command, opts, nil
}

// app wires the store and every stage together for one invocation.
type app struct {
	config    *cfg.Cfg
	searchDB  *database.DB
	articleDB *database.DB
	store     *database.Store
}

func newApp(config *cfg.Cfg) (*app, error) {
	searchDB, err := database.NewConnection(config.SearchDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open search database: %w", err)
	}

	articleDB, err := database.NewConnection(config.ArticleDBPath)
	if err != nil {
		searchDB.Close()
		return nil, fmt.Errorf("failed to open article database: %w", err)
	}

	if err := database.RunSearchMigrations(searchDB); err != nil {
		searchDB.Close()
		articleDB.Close()
		return nil, fmt.Errorf("failed to migrate search database: %w", err)
	}
	if err := database.RunArticleMigrations(articleDB); err != nil {
		searchDB.Close()
		articleDB.Close()
		return nil, fmt.Errorf("failed to migrate article database: %w", err)
	}

	return &app{
		config:    config,
		searchDB:  searchDB,
		articleDB: articleDB,
		store:     database.NewStore(searchDB, articleDB),
	}, nil
}

func (a *app) Close() {
	a.searchDB.Close()
	a.articleDB.Close()
}

func (a *app) dispatch(ctx context.Context, command string, opts cmdOptions) error {
	switch command {
	case "discover":
		return a.runDiscover(ctx, opts.date)
	case "scrape":
		return a.runScrape(ctx, opts.date)
	case "summarize":
		return a.runSummarize(ctx, opts.date)
	case "audio":
		return a.runAudio(ctx, opts.date)
	case "publish":
		return a.runPublish(ctx, opts.date)
	case "cleanup":
		if opts.purgeDate != "" {
			return a.runPurgeDate(opts.purgeDate)
		}
		return a.runCleanup(ctx, opts.date)
	case "run":
		return a.runPipeline(ctx, opts.date)
	case "stats":
		return a.runStats(opts.date, opts.days)
	case "serve":
		return a.runServe()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) runDiscover(ctx context.Context, date string) error {
	topicsConfig, err := topics.Load(a.config.TopicsFile)
	if err != nil {
		return err
	}

	client := discovery.NewGoogleNewsClient(a.config.UserAgent)
	stage := discovery.NewStage(a.store, client, topicsConfig.Topics)

	_, err = stage.Run(ctx, date)
	return err
}

func (a *app) runScrape(ctx context.Context, date string) error {
	stage := scrape.NewStage(a.store,
		scrape.NewRedirectResolver(a.config.UserAgent),
		scrape.NewHTTPFetcher(a.config.UserAgent),
		scrape.NewReadabilityExtractor(),
		a.config.WorkerCount,
		time.Duration(a.config.RequestDelay)*time.Second)

	_, err := stage.Run(ctx, date)
	return err
}

func (a *app) runSummarize(ctx context.Context, date string) error {
	client, err := summarize.NewGeminiClient(a.config.GeminiAPIKey, a.config.GeminiModel)
	if err != nil {
		return err
	}

	stage := summarize.NewStage(a.store, client, time.Duration(a.config.RequestDelay)*time.Second)

	_, err = stage.Run(ctx, date)
	return err
}

func (a *app) runAudio(ctx context.Context, date string) error {
	client, err := audiogen.NewGoogleTTSClient(a.config.TTSAPIKey, a.config.TTSVoice, a.config.SpeakingRate)
	if err != nil {
		return err
	}

	stage := audiogen.NewStage(a.store, client, audiogen.NewMP3Muxer(), a.config.TempAudioDir)

	_, err = stage.Run(ctx, date)
	return err
}

func (a *app) runPublish(ctx context.Context, date string) error {
	generator := publish.NewGenerator(a.feedConfig())
	stage := publish.NewStage(publish.NewFFProbeProber(), generator, a.config.AudioDir, a.config.TempAudioDir)

	_, err := stage.Run(ctx, date)
	return err
}

func (a *app) runCleanup(ctx context.Context, date string) error {
	stage := cleaner.NewStage(a.store, a.config.AudioDir, a.config.TempAudioDir, a.config.LogsDir)

	_, err := stage.Run(ctx, date)
	return err
}

func (a *app) runPurgeDate(date string) error {
	stage := cleaner.NewStage(a.store, a.config.AudioDir, a.config.TempAudioDir, a.config.LogsDir)
	stage.PurgeDate(date)
	return nil
}

func (a *app) runPipeline(ctx context.Context, date string) error {
	stages := []pipeline.Stage{
		{Name: "discover", Run: a.runDiscover},
		{Name: "scrape", Run: a.runScrape},
		{Name: "summarize", Run: a.runSummarize},
		{Name: "audio", Run: a.runAudio},
		{Name: "publish", Run: a.runPublish},
		{Name: "cleanup", Run: a.runCleanup},
	}

	runner := pipeline.NewRunner(stages, pipeline.DefaultPolicy())
	report := runner.Run(ctx, date)

	for _, s := range report.Stages {
		slog.Info("Stage report",
			"stage", s.Name,
			"status", s.Status,
			"duration", s.Duration,
			"error", s.Error)
	}

	if !report.Success {
		return fmt.Errorf("pipeline run did not meet the success policy (%d stages succeeded)", report.Succeeded())
	}

	return nil
}

func (a *app) runStats(date string, days int) error {
	dates := []string{date}
	if days > 1 {
		dates = timeutil.DateRange(days)
	}

	for _, d := range dates {
		stats := a.store.StatsForDate(d)

		fmt.Printf("Stats for %s:\n", stats.Date)
		fmt.Printf("  Discovered:   %d\n", stats.Discovered)
		fmt.Printf("  Artifacts:    %d\n", stats.Artifacts)
		fmt.Printf("  With text:    %d\n", stats.WithText)
		fmt.Printf("  With summary: %d\n", stats.WithSummary)
		fmt.Printf("  With audio:   %d\n", stats.WithAudio)
	}

	return nil
}

func (a *app) runServe() error {
	handler := api.NewHandler(a.store, a.config.AudioDir)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "port", a.config.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

func (a *app) feedConfig() publish.FeedConfig {
	baseURL := a.config.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + a.config.Port
	}

	feedConfig := publish.FeedConfig{
		Title:   a.config.PodcastTitle,
		BaseURL: baseURL,
		Version: a.config.Version,
	}

	// Optional channel metadata lives next to the topic list.
	if topicsConfig, err := topics.Load(a.config.TopicsFile); err == nil {
		if topicsConfig.Podcast.Title != "" {
			feedConfig.Title = topicsConfig.Podcast.Title
		}
		feedConfig.Author = topicsConfig.Podcast.Author
		feedConfig.Description = topicsConfig.Podcast.Description
		feedConfig.Language = topicsConfig.Podcast.Language
	}

	return feedConfig
}
