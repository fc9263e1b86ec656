package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	SearchDBPath  string `long:"search-db" env:"SEARCH_DB_PATH" default:"data/db/search_index.db" description:"Path to the search index database file"`
	ArticleDBPath string `long:"article-db" env:"ARTICLE_DB_PATH" default:"data/db/article_data.db" description:"Path to the article data database file"`

	// Content configuration
	TopicsFile   string `long:"topics-file" env:"TOPICS_FILE" default:"data/topics.yml" description:"YAML file listing topics to search"`
	AudioDir     string `long:"audio-dir" env:"AUDIO_OUTPUT_DIR" default:"data/audio" description:"Directory for final audio artifacts"`
	TempAudioDir string `long:"temp-audio-dir" env:"TEMP_AUDIO_DIR" default:"data/audio/temp" description:"Directory for intermediate audio clips"`
	LogsDir      string `long:"logs-dir" env:"LOGS_DIR" default:"logs" description:"Directory containing log files"`

	// Summarization API
	GeminiAPIKey string `long:"gemini-key" env:"GEMINI_KEY" description:"Gemini API key for summarization"`
	GeminiModel  string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-pro" description:"Gemini model used for summarization"`

	// Text-to-speech API
	TTSAPIKey    string  `long:"tts-key" env:"GCLOUD_TTS_KEY" description:"Google Cloud TTS API key"`
	TTSVoice     string  `long:"tts-voice" env:"TTS_VOICE" default:"en-US-Neural2-F" description:"TTS voice name"`
	SpeakingRate float64 `long:"speaking-rate" env:"TTS_SPEAKING_RATE" default:"0.9" description:"TTS speaking rate"`

	// Publishing
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port for the serve command"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for feed and audio links (e.g., https://podcast.example.com)"`
	PodcastTitle string `long:"podcast-title" env:"PODCAST_TITLE" default:"Your Daily News Digest" description:"Podcast title used in feed metadata"`

	// Processing
	WorkerCount  int `long:"worker-count" env:"WORKER_COUNT" default:"0" description:"Scrape worker count (0 = min of CPU count and 4)"`
	RequestDelay int `long:"request-delay" env:"REQUEST_DELAY" default:"1" description:"Delay in seconds between outbound requests"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"DailyPodcaster/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"" description:"Timezone for date computations (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses environment variables and command-line flags. Remaining
// positional arguments (the subcommand and its arguments) are returned to
// the caller. A nil config with nil error means help was requested.
func Load() (*Cfg, []string, error) {
	// Deployment convention: API keys live in a .env file next to the binary
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND"

	rest, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SearchDBPath:  raw.SearchDBPath,
		ArticleDBPath: raw.ArticleDBPath,
		TopicsFile:    raw.TopicsFile,
		AudioDir:      raw.AudioDir,
		TempAudioDir:  raw.TempAudioDir,
		LogsDir:       raw.LogsDir,
		GeminiAPIKey:  raw.GeminiAPIKey,
		GeminiModel:   raw.GeminiModel,
		TTSAPIKey:     raw.TTSAPIKey,
		TTSVoice:      raw.TTSVoice,
		SpeakingRate:  raw.SpeakingRate,
		Port:          raw.Port,
		BaseUrl:       raw.BaseUrl,
		PodcastTitle:  raw.PodcastTitle,
		WorkerCount:   raw.WorkerCount,
		RequestDelay:  raw.RequestDelay,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, rest, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
