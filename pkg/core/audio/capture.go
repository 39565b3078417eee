package audio

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core"
)

// InputDevice opens microphone capture sessions. Implementations are
// responsible for requesting OS permission on first acquisition and must
// return a core permission error when it is refused.
type InputDevice interface {
	// Acquire takes exclusive ownership of the microphone and begins
	// buffering audio.
	Acquire(ctx context.Context) (Capture, error)
}

// Capture is one live microphone acquisition.
type Capture interface {
	// Finish stops buffering, releases the device, and returns the
	// finalized buffer.
	Finish() (Buffer, error)

	// Discard releases the device without producing a buffer.
	Discard() error
}

// Recorder owns the microphone input device. At most one capture is in
// flight; a second start is rejected without touching the device.
type Recorder struct {
	device InputDevice
	logger *zap.Logger

	mu      sync.Mutex
	current Capture
}

// NewRecorder creates a recorder over the given input device.
func NewRecorder(device InputDevice, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{device: device, logger: logger}
}

// IsRecording reports whether a capture is in flight.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Start acquires the input device and begins buffering. It fails with
// an already-recording error if a capture is in progress, and with a
// permission error if device access is refused.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.current != nil {
		r.mu.Unlock()
		return core.NewAlreadyRecordingError()
	}
	r.mu.Unlock()

	capture, err := r.device.Acquire(ctx)
	if err != nil {
		r.logger.Warn("microphone acquisition failed", zap.Error(err))
		return err
	}

	r.mu.Lock()
	if r.current != nil {
		// Lost the race to a concurrent Start. Release the extra
		// acquisition so exactly one stays outstanding.
		r.mu.Unlock()
		_ = capture.Discard()
		return core.NewAlreadyRecordingError()
	}
	r.current = capture
	r.mu.Unlock()

	r.logger.Debug("recording started")
	return nil
}

// Stop finalizes the active capture and returns its buffer. When no
// capture is active it returns nil with no error.
func (r *Recorder) Stop() (*Buffer, error) {
	r.mu.Lock()
	capture := r.current
	r.current = nil
	r.mu.Unlock()

	if capture == nil {
		return nil, nil
	}

	buf, err := capture.Finish()
	if err != nil {
		r.logger.Warn("recording finalize failed", zap.Error(err))
		return nil, core.NewDeviceError("failed to finalize recording", err)
	}

	r.logger.Debug("recording stopped",
		zap.Int("bytes", len(buf.Bytes)),
		zap.String("mime_type", buf.MIMEType))
	return &buf, nil
}

// Abort discards the active capture, if any, releasing the device.
func (r *Recorder) Abort() {
	r.mu.Lock()
	capture := r.current
	r.current = nil
	r.mu.Unlock()

	if capture != nil {
		_ = capture.Discard()
		r.logger.Debug("recording discarded")
	}
}
