package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Extractor pulls the article body text out of raw HTML.
type Extractor interface {
	Extract(ctx context.Context, html, pageURL string) (string, error)
}

// ReadabilityExtractor extracts the main content block using a
// readability heuristic.
type ReadabilityExtractor struct{}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

func (e *ReadabilityExtractor) Extract(_ context.Context, html, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to extract content from %s: %w", pageURL, err)
	}

	if article.TextContent == "" {
		return "", fmt.Errorf("no text content extracted from %s", pageURL)
	}

	return article.TextContent, nil
}
