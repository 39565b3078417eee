package reverie

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core/audio"
	"github.com/reverielabs/reverie-lite/pkg/core/identity"
	"github.com/reverielabs/reverie-lite/pkg/core/llm"
	"github.com/reverielabs/reverie-lite/pkg/core/voice/stt"
	"github.com/reverielabs/reverie-lite/pkg/core/voice/tts"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger for the client and everything it wires.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPClient sets a custom HTTP client for credential fetches and
// the default inference providers.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithOpenAIKey enables the default OpenAI-backed transcription,
// synthesis, and response providers. Without a key the agent runs in
// demo mode.
func WithOpenAIKey(key string) ClientOption {
	return func(c *Client) {
		c.openAIKey = key
	}
}

// WithSandboxID sets the sandbox identifier used to fetch connection
// credentials.
func WithSandboxID(id string) ClientOption {
	return func(c *Client) {
		c.sandboxID = id
	}
}

// WithTokenEndpoint overrides the credential endpoint.
func WithTokenEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.tokenEndpoint = endpoint
	}
}

// WithStaticCredentials sets a fixed server URL and participant token,
// used when no sandbox id is configured.
func WithStaticCredentials(serverURL, token string) ClientOption {
	return func(c *Client) {
		c.staticServerURL = serverURL
		c.staticToken = token
	}
}

// WithWatchdogTimeout sets the agent availability window.
func WithWatchdogTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.watchdogTimeout = d
	}
}

// WithIdentity sets the identity provider.
func WithIdentity(p identity.Provider) ClientOption {
	return func(c *Client) {
		c.identity = p
	}
}

// WithVoice sets the synthesis voice identifier.
func WithVoice(voice string) ClientOption {
	return func(c *Client) {
		c.voice = voice
	}
}

// WithInputDevice sets the microphone backend.
func WithInputDevice(d audio.InputDevice) ClientOption {
	return func(c *Client) {
		c.inputDevice = d
	}
}

// WithOutputDevice sets the speaker backend.
func WithOutputDevice(d audio.OutputDevice) ClientOption {
	return func(c *Client) {
		c.outputDevice = d
	}
}

// WithTranscriber overrides the transcription provider.
func WithTranscriber(p stt.Provider) ClientOption {
	return func(c *Client) {
		c.sttProvider = p
	}
}

// WithSynthesizer overrides the synthesis provider.
func WithSynthesizer(p tts.Provider) ClientOption {
	return func(c *Client) {
		c.ttsProvider = p
	}
}

// WithCompletionClient overrides the completion client behind the agent.
func WithCompletionClient(client llm.Client) ClientOption {
	return func(c *Client) {
		c.llmClient = client
	}
}
