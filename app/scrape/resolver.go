package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Resolver converts a possibly-indirect link into the real destination
// article URL.
type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) (string, error)
}

// RedirectResolver resolves by following the HTTP redirect chain and
// reporting the final request URL.
type RedirectResolver struct {
	client    *http.Client
	userAgent string
}

func NewRedirectResolver(userAgent string) *RedirectResolver {
	return &RedirectResolver{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
	}
}

func (r *RedirectResolver) Resolve(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create resolve request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to follow redirects for %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("resolve returned HTTP %d for %s", resp.StatusCode, sourceURL)
	}

	final := resp.Request.URL.String()
	if final == "" {
		return "", fmt.Errorf("resolve produced empty url for %s", sourceURL)
	}

	return final, nil
}

// ValidURL reports whether raw is a well-formed absolute http(s) URL.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
