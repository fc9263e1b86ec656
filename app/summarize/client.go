package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	maxAttempts    = 3
	baseRetryDelay = 2 * time.Second
)

// Client generates a summary from a composed prompt.
type Client interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	client *resty.Client
	apiKey string
	model  string
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("summarization API key is not configured")
	}

	client := resty.New().
		SetBaseURL("https://generativelanguage.googleapis.com/v1beta").
		SetTimeout(120 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &GeminiClient{client: client, apiKey: apiKey, model: model}, nil
}

// Summarize sends the prompt and returns the generated text. Transient
// statuses are retried with exponential backoff; any other failure gives
// up immediately.
func (c *GeminiClient) Summarize(ctx context.Context, prompt string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.3,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := RetryDelay(attempt)
			slog.Warn("Retrying summarization call", "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		var parsed geminiResponse
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParam("key", c.apiKey).
			SetBody(body).
			SetResult(&parsed).
			Post(fmt.Sprintf("/models/%s:generateContent", c.model))
		if err != nil {
			lastErr = fmt.Errorf("summarization request failed: %w", err)
			continue
		}

		if resp.IsError() {
			lastErr = fmt.Errorf("summarization API returned HTTP %d", resp.StatusCode())
			if ShouldRetry(resp.StatusCode()) {
				continue
			}
			return "", lastErr
		}

		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("summarization API returned no candidates")
		}

		text := parsed.Candidates[0].Content.Parts[0].Text
		if text == "" {
			return "", fmt.Errorf("summarization API returned empty text")
		}
		return text, nil
	}

	return "", fmt.Errorf("summarization gave up after %d attempts: %w", maxAttempts, lastErr)
}

// ShouldRetry classifies an HTTP status as transient.
func ShouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// RetryDelay returns the backoff before the given attempt, capped at 30s.
func RetryDelay(attempt int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<(attempt-1))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}
