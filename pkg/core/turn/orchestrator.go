// Package turn coordinates one user interaction cycle: capture or typed
// input, transcription, response generation, synthesis, playback.
package turn

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core"
	"github.com/reverielabs/reverie-lite/pkg/core/audio"
	"github.com/reverielabs/reverie-lite/pkg/core/transcript"
)

// FallbackAgentLine is appended as the agent's reply when any stage of a
// turn fails.
const FallbackAgentLine = "Sorry, the agent is unavailable right now."

// noSpeechUtterance stands in for the user's words when a capture
// produced no transcribable speech.
const noSpeechUtterance = "(no speech detected)"

// Stage is the orchestrator's position within the current turn.
type Stage int

const (
	StageIdle Stage = iota
	StageCapturing
	StageTranscribing
	StageResponding
	StageSynthesizing
	StagePlaying
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCapturing:
		return "capturing"
	case StageTranscribing:
		return "transcribing"
	case StageResponding:
		return "responding"
	case StageSynthesizing:
		return "synthesizing"
	case StagePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Capturer is the microphone slot consumed by press-to-talk.
type Capturer interface {
	Start(ctx context.Context) error
	Stop() (*audio.Buffer, error)
	Abort()
}

// Speaker plays a synthesized clip.
type Speaker interface {
	Play(ctx context.Context, buf audio.Buffer) error
}

// Transcriber converts captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBytes []byte, mimeType string) (string, error)
}

// Responder generates the agent's reply to an utterance.
type Responder interface {
	Respond(ctx context.Context, userName, input string) (string, error)
}

// Synthesizer renders reply text into a playable clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error)
}

// Log receives the transcript entries a turn produces.
type Log interface {
	Append(origin transcript.Origin, text string) string
}

// Deps are the collaborators a turn drives. Connected gates the
// press-to-talk path; a nil func means always connected.
type Deps struct {
	Recorder    Capturer
	Player      Speaker
	Transcriber Transcriber
	Responder   Responder
	Synthesizer Synthesizer
	Transcript  Log
	Connected   func() bool
	Logger      *zap.Logger
}

// Config holds the per-user turn settings.
type Config struct {
	UserName string
	Voice    string
}

// DefaultConfig returns the default turn configuration.
func DefaultConfig() Config {
	return Config{UserName: "there", Voice: ""}
}

// Orchestrator runs one turn at a time. A second turn started while one
// is outstanding is rejected; press-to-talk start degrades to a no-op.
type Orchestrator struct {
	deps   Deps
	config Config
	logger *zap.Logger

	mu    sync.Mutex
	stage Stage
}

// New creates an orchestrator.
func New(deps Deps, config Config) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, config: config, logger: logger}
}

// Stage returns the current turn stage.
func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

// InProgress reports whether a turn is outstanding.
func (o *Orchestrator) InProgress() bool {
	return o.Stage() != StageIdle
}

func (o *Orchestrator) begin(to Stage) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stage != StageIdle {
		return false
	}
	o.stage = to
	return true
}

func (o *Orchestrator) setStage(s Stage) {
	o.mu.Lock()
	o.stage = s
	o.mu.Unlock()
}

func (o *Orchestrator) connected() bool {
	if o.deps.Connected == nil {
		return true
	}
	return o.deps.Connected()
}

// PressStart begins capturing for a press-to-talk turn. It is a silent
// no-op when a turn is already in progress or no session is connected.
// Device and permission failures are returned so the caller can surface
// them.
func (o *Orchestrator) PressStart(ctx context.Context) error {
	if !o.connected() {
		o.logger.Debug("press ignored, not connected")
		return nil
	}
	if !o.begin(StageCapturing) {
		o.logger.Debug("press ignored, turn in progress")
		return nil
	}

	if err := o.deps.Recorder.Start(ctx); err != nil {
		o.setStage(StageIdle)
		return err
	}
	return nil
}

// PressRelease ends capture and runs the rest of the turn. A release
// with nothing captured aborts back to idle with no transcript change,
// and a release after the session dropped discards the capture so the
// device is not left held. Stage failures never propagate past the
// turn; the transcript gains a fallback agent line instead.
func (o *Orchestrator) PressRelease(ctx context.Context) error {
	o.mu.Lock()
	if o.stage != StageCapturing {
		o.mu.Unlock()
		return nil
	}
	o.stage = StageTranscribing
	o.mu.Unlock()

	if !o.connected() {
		o.deps.Recorder.Abort()
		o.setStage(StageIdle)
		return nil
	}

	buf, err := o.deps.Recorder.Stop()
	if err != nil {
		o.logger.Warn("capture finalize failed", zap.Error(err))
		o.failTurn()
		return nil
	}
	if buf == nil {
		o.setStage(StageIdle)
		return nil
	}

	text, err := o.deps.Transcriber.Transcribe(ctx, buf.Bytes, buf.MIMEType)
	if err != nil {
		o.logger.Warn("transcription failed", zap.Error(err))
		o.failTurn()
		return nil
	}

	utterance := strings.TrimSpace(text)
	if utterance != "" {
		o.deps.Transcript.Append(transcript.OriginLocalUser, utterance)
	} else {
		utterance = noSpeechUtterance
	}

	o.respondAndSpeak(ctx, utterance)
	return nil
}

// Submit runs a typed-text turn, skipping capture and transcription. It
// rejects overlapping turns with a turn-in-progress error.
func (o *Orchestrator) Submit(ctx context.Context, text string) error {
	utterance := strings.TrimSpace(text)
	if utterance == "" {
		return nil
	}
	if !o.begin(StageResponding) {
		return core.NewTurnInProgressError()
	}

	o.deps.Transcript.Append(transcript.OriginLocalUser, utterance)
	o.respondAndSpeak(ctx, utterance)
	return nil
}

// respondAndSpeak drives the response, synthesis, and playback stages,
// ending at idle on every path.
func (o *Orchestrator) respondAndSpeak(ctx context.Context, utterance string) {
	o.setStage(StageResponding)

	reply, err := o.deps.Responder.Respond(ctx, o.config.UserName, utterance)
	if err != nil {
		o.logger.Warn("response generation failed", zap.Error(err))
		o.failTurn()
		return
	}
	o.deps.Transcript.Append(transcript.OriginRemoteAgent, reply)

	o.setStage(StageSynthesizing)
	clip, err := o.deps.Synthesizer.Synthesize(ctx, reply, o.config.Voice)
	if err != nil {
		// Text-only turn. The reply is already in the transcript.
		o.logger.Warn("synthesis failed, skipping playback", zap.Error(err))
		o.setStage(StageIdle)
		return
	}

	o.setStage(StagePlaying)
	if err := o.deps.Player.Play(ctx, clip); err != nil {
		o.logger.Warn("playback failed to start", zap.Error(err))
	}
	o.setStage(StageIdle)
}

// failTurn completes a broken turn with the fallback agent line.
func (o *Orchestrator) failTurn() {
	o.deps.Transcript.Append(transcript.OriginRemoteAgent, FallbackAgentLine)
	o.setStage(StageIdle)
}
