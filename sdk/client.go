// Package reverie provides the embedding surface for the voice
// reflection engine.
//
// A Client wires identity, credential fetching, the session connection
// manager, the transcript aggregator, and the turn orchestrator into a
// single capability object. Nothing is global; embedders construct a
// client and pass it down.
package reverie

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core"
	"github.com/reverielabs/reverie-lite/pkg/core/agent"
	"github.com/reverielabs/reverie-lite/pkg/core/audio"
	"github.com/reverielabs/reverie-lite/pkg/core/identity"
	"github.com/reverielabs/reverie-lite/pkg/core/llm"
	"github.com/reverielabs/reverie-lite/pkg/core/session"
	"github.com/reverielabs/reverie-lite/pkg/core/transcript"
	"github.com/reverielabs/reverie-lite/pkg/core/transport"
	"github.com/reverielabs/reverie-lite/pkg/core/transport/ws"
	"github.com/reverielabs/reverie-lite/pkg/core/turn"
	"github.com/reverielabs/reverie-lite/pkg/core/voice/stt"
	"github.com/reverielabs/reverie-lite/pkg/core/voice/tts"
)

// Client is the main entry point for the engine.
type Client struct {
	Session    *session.Manager
	Turns      *turn.Orchestrator
	Agent      *agent.Agent
	Transcript *transcript.Aggregator
	Identity   identity.Provider

	// Option fields, resolved during NewClient.
	logger          *zap.Logger
	httpClient      *http.Client
	openAIKey       string
	sandboxID       string
	tokenEndpoint   string
	staticServerURL string
	staticToken     string
	watchdogTimeout time.Duration
	identity        identity.Provider
	voice           string
	inputDevice     audio.InputDevice
	outputDevice    audio.OutputDevice
	sttProvider     stt.Provider
	ttsProvider     tts.Provider
	llmClient       llm.Client
}

// NewClient creates a client. Without an OpenAI key or injected
// providers the agent runs in demo mode and voice turns degrade to the
// fallback transcript line.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:     zap.NewNop(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.identity == nil {
		c.identity = identity.NewStatic(identity.Identity{ID: "local", Name: "there"})
	}
	c.Identity = c.identity

	if c.llmClient == nil && c.openAIKey != "" {
		c.llmClient = llm.NewOpenAI(c.openAIKey, llm.WithHTTPClient(c.httpClient))
	}
	c.Agent = agent.New(c.llmClient)

	if c.sttProvider == nil && c.openAIKey != "" {
		c.sttProvider = stt.NewOpenAI(c.openAIKey, stt.WithHTTPClient(c.httpClient))
	}
	if c.ttsProvider == nil && c.openAIKey != "" {
		c.ttsProvider = tts.NewOpenAI(c.openAIKey, tts.WithHTTPClient(c.httpClient))
	}

	source := &session.SandboxSource{
		Endpoint:        c.tokenEndpoint,
		SandboxID:       c.sandboxID,
		StaticServerURL: c.staticServerURL,
		StaticToken:     c.staticToken,
		HTTPClient:      c.httpClient,
	}

	c.Transcript = transcript.NewAggregator()

	sessionConfig := session.DefaultConfig()
	if c.watchdogTimeout > 0 {
		sessionConfig.Watchdog.Timeout = c.watchdogTimeout
	}
	if id, err := c.identity.Current(context.Background()); err == nil {
		sessionConfig.ParticipantMetadata = id.ID
	}

	factory := func() transport.Transport {
		return ws.NewClient(ws.WithLogger(c.logger))
	}
	c.Session = session.NewManager(source, factory, c.Transcript, sessionConfig, c.logger)

	c.Turns = turn.New(c.turnDeps(), turn.Config{UserName: "there", Voice: c.voice})
	return c
}

func (c *Client) turnDeps() turn.Deps {
	inputDevice := c.inputDevice
	if inputDevice == nil {
		inputDevice = noInputDevice{}
	}
	outputDevice := c.outputDevice
	if outputDevice == nil {
		outputDevice = noOutputDevice{}
	}

	var transcriber turn.Transcriber = unavailableTranscriber{}
	if c.sttProvider != nil {
		transcriber = c.sttProvider
	}
	var synthesizer turn.Synthesizer = unavailableSynthesizer{}
	if c.ttsProvider != nil {
		synthesizer = c.ttsProvider
	}

	return turn.Deps{
		Recorder:    audio.NewRecorder(inputDevice, c.logger),
		Player:      audio.NewPlayer(outputDevice, c.logger),
		Transcriber: transcriber,
		Responder:   &identityResponder{agent: c.Agent, identity: c.identity},
		Synthesizer: synthesizer,
		Transcript:  c.Transcript,
		Connected:   func() bool { return c.Session.State() == session.StateConnected },
		Logger:      c.logger,
	}
}

// Connect requests a session connection.
func (c *Client) Connect(ctx context.Context) {
	c.Session.RequestConnect(ctx)
}

// Disconnect ends the session.
func (c *Client) Disconnect() {
	c.Session.Disconnect()
}

// Say runs a typed-text turn.
func (c *Client) Say(ctx context.Context, text string) error {
	return c.Turns.Submit(ctx, text)
}

// Match scores the compatibility of two user profiles.
func (c *Client) Match(ctx context.Context, a, b agent.UserProfile) (agent.MatchResult, error) {
	return c.Agent.Match(ctx, a, b)
}

// identityResponder resolves the signed-in display name for each turn
// before delegating to the agent.
type identityResponder struct {
	agent    *agent.Agent
	identity identity.Provider
}

func (r *identityResponder) Respond(ctx context.Context, userName, input string) (string, error) {
	if id, err := r.identity.Current(ctx); err == nil && id.Name != "" {
		userName = id.Name
	}
	return r.agent.Respond(ctx, userName, input)
}

// noInputDevice rejects acquisition when the embedder supplied no
// microphone backend.
type noInputDevice struct{}

func (noInputDevice) Acquire(ctx context.Context) (audio.Capture, error) {
	return nil, core.NewDeviceError("no input device configured", nil)
}

// noOutputDevice rejects playback when the embedder supplied no speaker
// backend.
type noOutputDevice struct{}

func (noOutputDevice) Play(ctx context.Context, buf audio.Buffer) (audio.Playback, error) {
	return nil, core.NewDeviceError("no output device configured", nil)
}

type unavailableTranscriber struct{}

func (unavailableTranscriber) Transcribe(ctx context.Context, audioBytes []byte, mimeType string) (string, error) {
	return "", core.NewProviderError("stt", errors.New("no transcription provider configured"))
}

type unavailableSynthesizer struct{}

func (unavailableSynthesizer) Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error) {
	return audio.Buffer{}, core.NewProviderError("tts", errors.New("no synthesis provider configured"))
}
