package session

import (
	"sync"
	"testing"
	"time"

	"github.com/reverielabs/reverie-lite/pkg/core/transport"
)

type reasonRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *reasonRecorder) record(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *reasonRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func TestWatchdog_ExpiresWhenAgentNeverJoins(t *testing.T) {
	rec := &reasonRecorder{}
	w := NewWatchdog(WatchdogConfig{Timeout: 30 * time.Millisecond}, rec.record)

	w.Start()
	time.Sleep(80 * time.Millisecond)

	reasons := rec.get()
	if len(reasons) != 1 {
		t.Fatalf("fired %d times, want exactly once", len(reasons))
	}
	if reasons[0] != ReasonAgentNeverJoined {
		t.Errorf("reason = %q, want %q", reasons[0], ReasonAgentNeverJoined)
	}
	if w.IsActive() {
		t.Error("watchdog still active after expiry")
	}
}

func TestWatchdog_ExpiresWhenAgentJoinedButNotReady(t *testing.T) {
	rec := &reasonRecorder{}
	w := NewWatchdog(WatchdogConfig{Timeout: 30 * time.Millisecond}, rec.record)

	w.Start()
	w.Observe(transport.AgentInitializing)
	time.Sleep(80 * time.Millisecond)

	reasons := rec.get()
	if len(reasons) != 1 {
		t.Fatalf("fired %d times, want exactly once", len(reasons))
	}
	if reasons[0] != ReasonAgentNotReady {
		t.Errorf("reason = %q, want %q", reasons[0], ReasonAgentNotReady)
	}
}

func TestWatchdog_CancelledByAvailability(t *testing.T) {
	rec := &reasonRecorder{}
	w := NewWatchdog(WatchdogConfig{Timeout: 30 * time.Millisecond}, rec.record)

	w.Start()
	w.Observe(transport.AgentListening)
	time.Sleep(80 * time.Millisecond)

	if got := rec.get(); len(got) != 0 {
		t.Errorf("watchdog fired despite availability: %v", got)
	}
	if w.IsActive() {
		t.Error("watchdog should be disarmed once the agent is available")
	}
}

func TestWatchdog_CancelPreventsLateFire(t *testing.T) {
	rec := &reasonRecorder{}
	w := NewWatchdog(WatchdogConfig{Timeout: 30 * time.Millisecond}, rec.record)

	w.Start()
	w.Cancel()
	time.Sleep(80 * time.Millisecond)

	if got := rec.get(); len(got) != 0 {
		t.Errorf("cancelled watchdog fired: %v", got)
	}
}

func TestWatchdog_DefaultTimeout(t *testing.T) {
	w := NewWatchdog(WatchdogConfig{}, nil)
	if w.config.Timeout != DefaultWatchdogTimeout {
		t.Errorf("Timeout = %v, want %v", w.config.Timeout, DefaultWatchdogTimeout)
	}
}
