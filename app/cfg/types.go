package cfg

type Cfg struct {
	// Storage configuration
	SearchDBPath  string
	ArticleDBPath string

	// Content configuration
	TopicsFile   string
	AudioDir     string
	TempAudioDir string
	LogsDir      string

	// Summarization API
	GeminiAPIKey string
	GeminiModel  string

	// Text-to-speech API
	TTSAPIKey    string
	TTSVoice     string
	SpeakingRate float64

	// Publishing
	Port         string
	BaseUrl      string
	PodcastTitle string

	// Processing
	WorkerCount  int
	RequestDelay int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
