package audiogen

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// TTSClient synthesizes speech audio from text or SSML markup.
type TTSClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	SynthesizeSSML(ctx context.Context, ssml string) ([]byte, error)
}

// GoogleTTSClient calls the Google Cloud text:synthesize endpoint and
// returns MP3 bytes.
type GoogleTTSClient struct {
	client       *resty.Client
	apiKey       string
	voice        string
	speakingRate float64
}

type ttsRequest struct {
	Input       ttsInput       `json:"input"`
	Voice       ttsVoice       `json:"voice"`
	AudioConfig ttsAudioConfig `json:"audioConfig"`
}

type ttsInput struct {
	Text string `json:"text,omitempty"`
	SSML string `json:"ssml,omitempty"`
}

type ttsVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type ttsAudioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate"`
}

type ttsResponse struct {
	AudioContent string `json:"audioContent"`
}

func NewGoogleTTSClient(apiKey, voice string, speakingRate float64) (*GoogleTTSClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("TTS API key is not configured")
	}

	client := resty.New().
		SetBaseURL("https://texttospeech.googleapis.com/v1").
		SetTimeout(120 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &GoogleTTSClient{
		client:       client,
		apiKey:       apiKey,
		voice:        voice,
		speakingRate: speakingRate,
	}, nil
}

func (c *GoogleTTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return c.synthesize(ctx, ttsInput{Text: text})
}

func (c *GoogleTTSClient) SynthesizeSSML(ctx context.Context, ssml string) ([]byte, error) {
	return c.synthesize(ctx, ttsInput{SSML: ssml})
}

func (c *GoogleTTSClient) synthesize(ctx context.Context, input ttsInput) ([]byte, error) {
	body := ttsRequest{
		Input: input,
		Voice: ttsVoice{
			LanguageCode: languageCodeOf(c.voice),
			Name:         c.voice,
		},
		AudioConfig: ttsAudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  c.speakingRate,
		},
	}

	var parsed ttsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&parsed).
		Post("/text:synthesize")
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("TTS API returned HTTP %d", resp.StatusCode())
	}

	if parsed.AudioContent == "" {
		return nil, fmt.Errorf("TTS API returned no audio content")
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %w", err)
	}

	return audio, nil
}

// languageCodeOf derives the language code from a voice name like
// en-US-Neural2-F.
func languageCodeOf(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}
