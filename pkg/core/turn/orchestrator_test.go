package turn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reverielabs/reverie-lite/pkg/core"
	"github.com/reverielabs/reverie-lite/pkg/core/audio"
	"github.com/reverielabs/reverie-lite/pkg/core/transcript"
)

type fakeCapturer struct {
	startErr error
	stopBuf  *audio.Buffer
	stopErr  error

	started int
	stopped int
	aborted int
}

func (f *fakeCapturer) Start(ctx context.Context) error {
	f.started++
	return f.startErr
}

func (f *fakeCapturer) Stop() (*audio.Buffer, error) {
	f.stopped++
	return f.stopBuf, f.stopErr
}

func (f *fakeCapturer) Abort() { f.aborted++ }

type fakeSpeaker struct {
	err    error
	played []audio.Buffer
}

func (f *fakeSpeaker) Play(ctx context.Context, buf audio.Buffer) error {
	if f.err != nil {
		return f.err
	}
	f.played = append(f.played, buf)
	return nil
}

type fakeTranscriber struct {
	text string
	err  error

	gotBytes []byte
	gotMIME  string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioBytes []byte, mimeType string) (string, error) {
	f.gotBytes = audioBytes
	f.gotMIME = mimeType
	return f.text, f.err
}

type fakeResponder struct {
	reply string
	err   error

	gotName  string
	gotInput string
	release  chan struct{}
}

func (f *fakeResponder) Respond(ctx context.Context, userName, input string) (string, error) {
	f.gotName = userName
	f.gotInput = input
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

type fakeSynthesizer struct {
	clip audio.Buffer
	err  error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error) {
	return f.clip, f.err
}

type logEntry struct {
	origin transcript.Origin
	text   string
}

type fakeLog struct {
	mu      sync.Mutex
	entries []logEntry
}

func (f *fakeLog) Append(origin transcript.Origin, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, logEntry{origin, text})
	return "id"
}

func (f *fakeLog) all() []logEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logEntry(nil), f.entries...)
}

type harness struct {
	capturer    *fakeCapturer
	speaker     *fakeSpeaker
	transcriber *fakeTranscriber
	responder   *fakeResponder
	synthesizer *fakeSynthesizer
	log         *fakeLog
	connected   bool
	orch        *Orchestrator
}

func newHarness() *harness {
	h := &harness{
		capturer:    &fakeCapturer{stopBuf: &audio.Buffer{Bytes: []byte("pcm"), MIMEType: "audio/webm"}},
		speaker:     &fakeSpeaker{},
		transcriber: &fakeTranscriber{text: "hello agent"},
		responder:   &fakeResponder{reply: "hello user"},
		synthesizer: &fakeSynthesizer{clip: audio.Buffer{Bytes: []byte("mp3"), MIMEType: "audio/mpeg"}},
		log:         &fakeLog{},
		connected:   true,
	}
	h.orch = New(Deps{
		Recorder:    h.capturer,
		Player:      h.speaker,
		Transcriber: h.transcriber,
		Responder:   h.responder,
		Synthesizer: h.synthesizer,
		Transcript:  h.log,
		Connected:   func() bool { return h.connected },
	}, Config{UserName: "Ada", Voice: "alloy"})
	return h
}

func TestVoiceTurnHappyPath(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if h.orch.Stage() != StageCapturing {
		t.Fatalf("stage = %v, want capturing", h.orch.Stage())
	}
	if err := h.orch.PressRelease(ctx); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}

	if h.orch.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", h.orch.Stage())
	}
	if h.transcriber.gotMIME != "audio/webm" {
		t.Errorf("transcriber mime = %q", h.transcriber.gotMIME)
	}
	if h.responder.gotName != "Ada" || h.responder.gotInput != "hello agent" {
		t.Errorf("responder got (%q, %q)", h.responder.gotName, h.responder.gotInput)
	}

	entries := h.log.all()
	if len(entries) != 2 {
		t.Fatalf("got %d transcript entries, want 2", len(entries))
	}
	if entries[0].origin != transcript.OriginLocalUser || entries[0].text != "hello agent" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].origin != transcript.OriginRemoteAgent || entries[1].text != "hello user" {
		t.Errorf("second entry = %+v", entries[1])
	}
	if len(h.speaker.played) != 1 {
		t.Fatalf("got %d playbacks, want 1", len(h.speaker.played))
	}
	if h.speaker.played[0].MIMEType != "audio/mpeg" {
		t.Errorf("played mime = %q", h.speaker.played[0].MIMEType)
	}
}

func TestPressStartSilentWhenDisconnected(t *testing.T) {
	h := newHarness()
	h.connected = false

	if err := h.orch.PressStart(context.Background()); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if h.capturer.started != 0 {
		t.Error("recorder started while disconnected")
	}
	if h.orch.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", h.orch.Stage())
	}
}

func TestPressStartSilentWhenTurnInProgress(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("second PressStart: %v", err)
	}
	if h.capturer.started != 1 {
		t.Errorf("recorder started %d times, want 1", h.capturer.started)
	}
}

func TestPressStartSurfacesDeviceError(t *testing.T) {
	h := newHarness()
	h.capturer.startErr = core.NewPermissionDeniedError("microphone")

	err := h.orch.PressStart(context.Background())
	if !core.IsType(err, core.ErrPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
	if h.orch.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle after failed start", h.orch.Stage())
	}
}

func TestReleaseWithNothingCapturedAborts(t *testing.T) {
	h := newHarness()
	h.capturer.stopBuf = nil
	ctx := context.Background()

	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if err := h.orch.PressRelease(ctx); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}

	if len(h.log.all()) != 0 {
		t.Errorf("transcript mutated on empty capture: %+v", h.log.all())
	}
	if h.orch.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", h.orch.Stage())
	}
}

func TestReleaseAfterDisconnectDiscardsCapture(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	h.connected = false

	if err := h.orch.PressRelease(ctx); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}

	if h.capturer.aborted != 1 {
		t.Errorf("recorder aborted %d times, want 1", h.capturer.aborted)
	}
	if h.capturer.stopped != 0 {
		t.Error("recorder stopped after the session dropped")
	}
	if len(h.log.all()) != 0 {
		t.Errorf("transcript mutated on a discarded capture: %+v", h.log.all())
	}
	if h.orch.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", h.orch.Stage())
	}
}

func TestReleaseWithoutStartIsNoop(t *testing.T) {
	h := newHarness()

	if err := h.orch.PressRelease(context.Background()); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}
	if h.capturer.stopped != 0 {
		t.Error("recorder stopped without a capture")
	}
}

func TestTranscriptionFailureFallsBack(t *testing.T) {
	h := newHarness()
	h.transcriber.err = errors.New("stt down")
	ctx := context.Background()

	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if err := h.orch.PressRelease(ctx); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}

	entries := h.log.all()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].origin != transcript.OriginRemoteAgent || entries[0].text != FallbackAgentLine {
		t.Errorf("entry = %+v, want fallback agent line", entries[0])
	}
	if len(h.speaker.played) != 0 {
		t.Error("playback started on a failed turn")
	}
}

func TestEmptyTranscriptionStillGetsReply(t *testing.T) {
	h := newHarness()
	h.transcriber.text = "   "
	ctx := context.Background()

	if err := h.orch.PressStart(ctx); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if err := h.orch.PressRelease(ctx); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}

	entries := h.log.all()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (agent only)", len(entries))
	}
	if entries[0].origin != transcript.OriginRemoteAgent {
		t.Errorf("entry origin = %v, want remote agent", entries[0].origin)
	}
	if h.responder.gotInput != noSpeechUtterance {
		t.Errorf("responder input = %q", h.responder.gotInput)
	}
}

func TestResponderFailureFallsBack(t *testing.T) {
	h := newHarness()
	h.responder.err = errors.New("llm down")

	if err := h.orch.Submit(context.Background(), "hi"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	entries := h.log.all()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1].text != FallbackAgentLine {
		t.Errorf("agent entry = %q, want fallback", entries[1].text)
	}
	if len(h.speaker.played) != 0 {
		t.Error("playback started on a failed turn")
	}
}

func TestSynthesisFailureDegradesToText(t *testing.T) {
	h := newHarness()
	h.synthesizer.err = errors.New("tts down")

	if err := h.orch.Submit(context.Background(), "hi"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	entries := h.log.all()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1].text != "hello user" {
		t.Errorf("agent entry = %q, want real reply", entries[1].text)
	}
	if len(h.speaker.played) != 0 {
		t.Error("playback started despite synthesis failure")
	}
	if h.orch.Stage() != StageIdle {
		t.Errorf("stage = %v, want idle", h.orch.Stage())
	}
}

func TestSubmitRejectsOverlappingTurn(t *testing.T) {
	h := newHarness()
	h.responder.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- h.orch.Submit(context.Background(), "first")
	}()

	// Wait until the first turn is inside the responder.
	for h.orch.Stage() != StageResponding {
		time.Sleep(time.Millisecond)
	}

	err := h.orch.Submit(context.Background(), "second")
	if !core.IsType(err, core.ErrTurnInProgress) {
		t.Fatalf("err = %v, want turn in progress", err)
	}

	close(h.responder.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
}

func TestSubmitIgnoresBlankText(t *testing.T) {
	h := newHarness()

	if err := h.orch.Submit(context.Background(), "   "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.log.all()) != 0 {
		t.Error("transcript mutated on blank submit")
	}
}
