package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/reverielabs/reverie-lite/pkg/core/audio"
)

const (
	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the synthesis model used when none is set.
	DefaultModel = "tts-1"

	// DefaultVoice is used when the caller passes no voice identifier.
	DefaultVoice = "alloy"

	// fallbackMIMEType tags responses without a content-type header.
	fallbackMIMEType = "audio/mpeg"
)

// OpenAIProvider implements the Provider interface over OpenAI's speech
// endpoint.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures the provider.
type Option func(*OpenAIProvider)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(p *OpenAIProvider) { p.baseURL = baseURL }
}

// WithModel overrides the synthesis model.
func WithModel(model string) Option {
	return func(p *OpenAIProvider) { p.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *OpenAIProvider) { p.httpClient = client }
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(apiKey string, opts ...Option) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Synthesize posts the text and reads the response body as the encoded
// clip, tagged with the response content type.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error) {
	if voice == "" {
		voice = DefaultVoice
	}

	body, err := json.Marshal(speechRequest{Model: p.model, Voice: voice, Input: text})
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(p.baseURL, "/") + "/audio/speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return audio.Buffer{}, fmt.Errorf("synthesis error %d: %s", resp.StatusCode, string(errBody))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("read audio: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = fallbackMIMEType
	}
	return audio.Buffer{Bytes: data, MIMEType: mimeType}, nil
}
