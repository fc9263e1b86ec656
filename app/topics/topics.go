package topics

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultTopic is the group used for articles that lost their topic
// association.
const DefaultTopic = "General"

// Config is the topics file: the subjects to search plus optional podcast
// metadata used when generating the feed.
type Config struct {
	Topics  []string `yaml:"topics"`
	Podcast Podcast  `yaml:"podcast"`
}

type Podcast struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

// Load reads and validates the topics file at path. An empty topic list
// is an error: discovery cannot run without subjects to search.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse topics file %s: %w", path, err)
	}

	config.normalize()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid topics file %s: %w", path, err)
	}

	config.setDefaults()

	return &config, nil
}

func (c *Config) normalize() {
	cleaned := make([]string, 0, len(c.Topics))
	for _, t := range c.Topics {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	c.Topics = cleaned
}

func (c *Config) validate() error {
	if len(c.Topics) == 0 {
		return fmt.Errorf("no topics found")
	}

	seen := make(map[string]bool)
	for _, t := range c.Topics {
		key := strings.ToLower(t)
		if seen[key] {
			return fmt.Errorf("duplicate topic %q", t)
		}
		seen[key] = true
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.Podcast.Language == "" {
		c.Podcast.Language = "en-us"
	}
	if c.Podcast.Description == "" {
		c.Podcast.Description = "A daily news digest generated from the day's top stories."
	}
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a configured topic string for narration and feed
// titles.
func DisplayName(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return DefaultTopic
	}
	return titleCaser.String(topic)
}
