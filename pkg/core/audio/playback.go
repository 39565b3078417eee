package audio

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// OutputDevice starts speaker playback of an encoded clip.
type OutputDevice interface {
	// Play begins playing the buffer and returns a handle for the clip.
	Play(ctx context.Context, buf Buffer) (Playback, error)
}

// Playback is one active clip on the output device.
type Playback interface {
	// Done is closed when the clip finishes, naturally or on error.
	Done() <-chan struct{}

	// Stop halts the clip and releases it. Idempotent.
	Stop()
}

// Player owns the single active playback slot. Playing a new clip stops
// and replaces any clip already playing; there is never overlapping audio.
// Playback errors are swallowed here and reported only as "stopped",
// since a failed clip must not block the turn from completing.
type Player struct {
	device OutputDevice
	logger *zap.Logger

	mu      sync.Mutex
	current Playback
	playing bool
}

// NewPlayer creates a player over the given output device.
func NewPlayer(device OutputDevice, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{device: device, logger: logger}
}

// IsPlaying reports whether a clip is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Play stops any clip already playing, then begins the new one.
// IsPlaying stays true until natural completion or an explicit Stop.
func (p *Player) Play(ctx context.Context, buf Buffer) error {
	p.mu.Lock()
	if p.current != nil {
		p.current.Stop()
		p.current = nil
		p.playing = false
	}
	p.mu.Unlock()

	playback, err := p.device.Play(ctx, buf)
	if err != nil {
		p.logger.Warn("playback failed to start", zap.Error(err))
		return err
	}

	p.mu.Lock()
	p.current = playback
	p.playing = true
	p.mu.Unlock()

	go p.watch(playback)

	p.logger.Debug("playback started",
		zap.Int("bytes", len(buf.Bytes)),
		zap.String("mime_type", buf.MIMEType))
	return nil
}

// watch clears the playing flag exactly once when the clip ends.
func (p *Player) watch(playback Playback) {
	<-playback.Done()

	p.mu.Lock()
	if p.current == playback {
		p.current = nil
		p.playing = false
	}
	p.mu.Unlock()
}

// Stop halts the active clip, if any. Idempotent.
func (p *Player) Stop() {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.playing = false
	p.mu.Unlock()

	if current != nil {
		current.Stop()
	}
}
