package session

import (
	"sync"
	"time"

	"github.com/reverielabs/reverie-lite/pkg/core/transport"
)

// DefaultWatchdogTimeout is how long the agent has to become available
// after a user-visible session start.
const DefaultWatchdogTimeout = 10 * time.Second

// Watchdog reason messages, distinguishing the failure stage.
const (
	ReasonAgentNeverJoined = "Agent did not join the room."
	ReasonAgentNotReady    = "Agent connected but did not finish initializing."
)

// WatchdogConfig configures the availability watchdog.
type WatchdogConfig struct {
	// Timeout is the window the agent has to become available.
	// Default: 10 seconds.
	Timeout time.Duration
}

// DefaultWatchdogConfig returns a WatchdogConfig with the reference
// timeout.
func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{Timeout: DefaultWatchdogTimeout}
}

// Watchdog is the timer-based liveness check ensuring the remote agent
// becomes ready within a bounded window after session start. It fires
// at most once per Start; observing an available agent state, a
// disconnect, or teardown cancels it.
type Watchdog struct {
	config WatchdogConfig

	mu        sync.Mutex
	active    bool
	lastState transport.AgentState
	timer     *time.Timer

	onExpired func(reason string)
}

// NewWatchdog creates a watchdog. The onExpired callback receives the
// human-readable reason for the failure.
func NewWatchdog(config WatchdogConfig, onExpired func(reason string)) *Watchdog {
	if config.Timeout <= 0 {
		config.Timeout = DefaultWatchdogTimeout
	}
	return &Watchdog{
		config:    config,
		lastState: transport.AgentConnecting,
		onExpired: onExpired,
	}
}

// Start arms the timer. Restarting an active watchdog re-arms it.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.active = true
	w.lastState = transport.AgentConnecting
	w.timer = time.AfterFunc(w.config.Timeout, w.expire)
}

// Observe records the latest agent activity state. An available state
// cancels the watchdog.
func (w *Watchdog) Observe(state transport.AgentState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastState = state
	if state.Available() && w.active {
		w.stopLocked()
	}
}

// Cancel disarms the watchdog without firing. Called on disconnect and
// teardown so a stray late timer cannot surface an error.
func (w *Watchdog) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

// IsActive reports whether the watchdog is armed.
func (w *Watchdog) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Watchdog) stopLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.active = false
}

func (w *Watchdog) expire() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	w.active = false
	w.timer = nil
	state := w.lastState
	callback := w.onExpired
	w.mu.Unlock()

	reason := ReasonAgentNotReady
	if state == transport.AgentConnecting || state == transport.AgentDisconnected {
		reason = ReasonAgentNeverJoined
	}
	if callback != nil {
		callback(reason)
	}
}
