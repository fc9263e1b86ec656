package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher retrieves the raw HTML of an article page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher fetches pages over plain HTTP. Pages that require script
// execution to render fall through to the extraction length gate.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("fetch returned HTTP %d for %s", resp.StatusCode(), pageURL)
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return "", fmt.Errorf("unexpected content type %q for %s", contentType, pageURL)
	}

	body := resp.String()
	if body == "" {
		return "", fmt.Errorf("empty response body for %s", pageURL)
	}

	return body, nil
}
