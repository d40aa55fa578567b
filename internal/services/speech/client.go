// Package speech wraps an OpenAI-compatible text-to-speech API and provides
// the deterministic local fallbacks used when no synthesis capability is
// available: a silent MP3 placeholder and a word-count duration estimate.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "tts-1"
	defaultVoice       = "alloy"
	defaultHTTPTimeout = 60 * time.Second

	// wordsPerMinute drives the duration estimate used when no real audio
	// exists to measure.
	wordsPerMinute = 150.0
)

// Client wraps the speech synthesis API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	httpClient *http.Client
}

// Option customizes the speech client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the default synthesis model.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// WithVoice overrides the default voice.
func WithVoice(voice string) Option {
	return func(c *Client) {
		voice = strings.TrimSpace(voice)
		if voice != "" {
			c.voice = voice
		}
	}
}

// NewClient constructs a speech API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		voice:      defaultVoice,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Configured reports whether the client has an API key and can attempt real
// synthesis.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type speechRequest struct {
	Model string  `json:"model"`
	Voice string  `json:"voice"`
	Input string  `json:"input"`
	Speed float64 `json:"speed"`
}

// Synthesize converts text to MP3 audio. Callers own the fallback behavior;
// any transport or API failure surfaces as an error.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("speech synthesize: text required")
	}
	if c.apiKey == "" {
		return nil, errors.New("speech synthesize: api key required")
	}

	encoded, err := json.Marshal(speechRequest{Model: c.model, Voice: c.voice, Input: text, Speed: 1.0})
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: encode request: %w", err)
	}
	endpoint, err := url.JoinPath(c.baseURL, "/audio/speech")
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(body) == 0 {
		return nil, errors.New("speech synthesize: empty audio payload")
	}
	return body, nil
}

// EstimateDuration returns the spoken-duration estimate for text at the
// assumed narration pace: word_count / 150 words-per-minute, in seconds.
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words) / wordsPerMinute * 60.0
}
