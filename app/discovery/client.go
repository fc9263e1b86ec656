package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one candidate article as returned by a search client.
type Item struct {
	Title        string
	Link         string
	Source       string
	PublishedRaw string
}

// SearchClient finds candidate articles for a topic.
type SearchClient interface {
	Search(ctx context.Context, topic string) ([]Item, error)
}

// GoogleNewsClient searches the Google News RSS endpoint. Links in the
// results are indirect redirect URLs; resolution happens downstream.
type GoogleNewsClient struct {
	parser  *gofeed.Parser
	baseURL string
}

func NewGoogleNewsClient(userAgent string) *GoogleNewsClient {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: 30 * time.Second}

	return &GoogleNewsClient{
		parser:  parser,
		baseURL: "https://news.google.com/rss/search",
	}
}

func (c *GoogleNewsClient) Search(ctx context.Context, topic string) ([]Item, error) {
	query := url.Values{}
	query.Set("q", topic)
	query.Set("hl", "en-US")
	query.Set("gl", "US")
	query.Set("ceid", "US:en")

	feedURL := c.baseURL + "?" + query.Encode()

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search feed for %q: %w", topic, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}
		title, source := splitTitleSource(entry.Title)
		if source == "" {
			source = hostOf(entry.Link)
		}
		items = append(items, Item{
			Title:        title,
			Link:         entry.Link,
			Source:       source,
			PublishedRaw: entry.Published,
		})
	}

	return items, nil
}

// splitTitleSource separates the " - Publisher" suffix Google News
// appends to entry titles.
func splitTitleSource(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
