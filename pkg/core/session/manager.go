// Package session owns the lifecycle of exactly one real-time session
// at a time: credential fetch, connect/disconnect, the availability
// watchdog, and routing of transport events into the transcript.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core"
	"github.com/reverielabs/reverie-lite/pkg/core/transcript"
	"github.com/reverielabs/reverie-lite/pkg/core/transport"
)

// State is the connection state of the session manager.
type State int

const (
	// StateIdle is the initial state before any connect request.
	StateIdle State = iota
	// StateAwaitingCredentials means a credential fetch is in flight.
	StateAwaitingCredentials
	// StateConnecting means a transport connect attempt is in flight.
	StateConnecting
	// StateConnected means the real-time session is established.
	StateConnected
	// StateDisconnected follows explicit or remote teardown. Recoverable.
	StateDisconnected
	// StateError follows an unrecoverable attempt failure. Recoverable
	// by a fresh connect request.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingCredentials:
		return "AWAITING_CREDENTIALS"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TransportFactory creates a fresh transport for each connection
// attempt; transports are single-session.
type TransportFactory func() transport.Transport

// Config holds session manager settings.
type Config struct {
	// Watchdog configures the agent availability watchdog.
	Watchdog WatchdogConfig

	// ParticipantMetadata is published after connecting, typically the
	// current user id. Publish failure is logged, never fatal.
	ParticipantMetadata string
}

// DefaultConfig returns a Config with reference defaults.
func DefaultConfig() Config {
	return Config{Watchdog: DefaultWatchdogConfig()}
}

// Manager is the session connection state machine. All transitions go
// through a single mutation entry point guarded by one mutex; callers
// observe them through the event stream.
type Manager struct {
	source       CredentialSource
	newTransport TransportFactory
	aggregator   *transcript.Aggregator
	config       Config
	logger       *zap.Logger
	watchdog     *Watchdog

	events chan Event

	mu             sync.Mutex
	state          State
	creds          *ConnectionDetails
	fetching       bool
	pendingConnect bool
	current        transport.Transport
	currentErr     *core.ErrorDetails
	agentState     transport.AgentState

	// epoch is bumped on every teardown. Asynchronous connect attempts
	// carry the epoch they were started under and abandon themselves
	// when a disconnect supersedes them mid-flight.
	epoch uint64
}

// NewManager creates a session manager.
func NewManager(
	source CredentialSource,
	factory TransportFactory,
	aggregator *transcript.Aggregator,
	config Config,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		source:       source,
		newTransport: factory,
		aggregator:   aggregator,
		config:       config,
		logger:       logger,
		events:       make(chan Event, 64),
		state:        StateIdle,
		agentState:   transport.AgentDisconnected,
	}
	m.watchdog = NewWatchdog(config.Watchdog, m.onWatchdogExpired)
	return m
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AgentState returns the last observed remote agent activity state.
func (m *Manager) AgentState() transport.AgentState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agentState
}

// AgentAvailable reports whether the remote agent is ready for turns.
func (m *Manager) AgentAvailable() bool {
	return m.AgentState().Available()
}

// Transcript returns the aggregator this session writes into.
func (m *Manager) Transcript() *transcript.Aggregator {
	return m.aggregator
}

// Events returns the session event stream.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// CurrentError returns the dismissible current-error slot, or nil.
func (m *Manager) CurrentError() *core.ErrorDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentErr == nil {
		return nil
	}
	details := *m.currentErr
	return &details
}

// RequestConnect starts a connection attempt. It is a no-op while a
// session is connecting or connected. When credentials are absent or
// stale it triggers an asynchronous fetch and resumes the connect once
// they arrive; concurrent requests during the fetch are coalesced into
// a single pending resume.
func (m *Manager) RequestConnect(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return
	}

	m.currentErr = nil
	m.watchdog.Start()

	if m.creds == nil || m.creds.Expired(time.Now()) {
		m.creds = nil
		m.pendingConnect = true
		m.setStateLocked(StateAwaitingCredentials)
		if !m.fetching {
			m.fetching = true
			go m.fetchCredentials(ctx)
		}
		m.mu.Unlock()
		return
	}

	creds := m.creds
	attempt := m.epoch
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	go m.connect(ctx, creds, attempt)
}

// fetchCredentials resolves connection details and resumes the pending
// connect attempt, if any.
func (m *Manager) fetchCredentials(ctx context.Context) {
	details, err := m.source.Fetch(ctx)

	m.mu.Lock()
	m.fetching = false
	if m.state != StateAwaitingCredentials {
		// Superseded by an explicit disconnect during the fetch.
		m.pendingConnect = false
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.pendingConnect = false
		m.setStateLocked(StateError)
		m.mu.Unlock()

		m.watchdog.Cancel()
		m.logger.Warn("credential fetch failed", zap.Error(err))
		m.surfaceError(core.ErrorDetails{
			Title:       "There was an error connecting to the agent",
			Description: err.Error(),
		})
		return
	}

	m.creds = details
	resume := m.pendingConnect
	m.pendingConnect = false
	if !resume {
		m.mu.Unlock()
		return
	}
	attempt := m.epoch
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.connect(ctx, details, attempt)
}

// connect performs one transport connect attempt. The attempt installs
// its transport only if no disconnect superseded it while the dial was
// in flight.
func (m *Manager) connect(ctx context.Context, creds *ConnectionDetails, attempt uint64) {
	tr := m.newTransport()
	if err := tr.Connect(ctx, creds.ServerURL, creds.ParticipantToken); err != nil {
		_ = tr.Close()

		m.mu.Lock()
		if m.epoch != attempt {
			m.mu.Unlock()
			return
		}
		m.creds = nil // credentials are single-use
		m.setStateLocked(StateError)
		m.mu.Unlock()

		m.watchdog.Cancel()
		m.logger.Warn("transport connect failed", zap.Error(err))
		m.surfaceError(core.ErrorDetails{
			Title:       "There was an error connecting to the agent",
			Description: err.Error(),
		})
		return
	}

	m.mu.Lock()
	if m.epoch != attempt {
		// Disconnected while dialing; this session was torn down
		// before it was ever observable.
		m.mu.Unlock()
		_ = tr.Close()
		return
	}
	m.current = tr
	m.agentState = transport.AgentConnecting
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	// New session: the previous transcript no longer applies.
	m.aggregator.Reset()

	if m.config.ParticipantMetadata != "" {
		if err := tr.SetMetadata(ctx, m.config.ParticipantMetadata); err != nil {
			m.logger.Warn("failed to set participant metadata", zap.Error(err))
		}
	}

	go m.pump(tr)
}

// pump routes transport events into the state machine and transcript.
// Transcript updates are applied in observation order; the aggregator's
// per-id merge rule is the sole ordering authority.
func (m *Manager) pump(tr transport.Transport) {
	for ev := range tr.Events() {
		switch e := ev.(type) {
		case *transport.ConnectedEvent:
			// Connect already transitioned; nothing to do.

		case *transport.DisconnectedEvent:
			m.handleDisconnected(tr)

		case *transport.MediaDeviceErrorEvent:
			// Session stays alive; the user may dismiss, which forces
			// a disconnect.
			m.surfaceError(core.ErrorDetails{
				Title:       "Encountered an error with your media devices",
				Description: e.Name + ": " + e.Message,
			})

		case *transport.AgentStateEvent:
			m.watchdog.Observe(e.State)
			m.mu.Lock()
			m.agentState = e.State
			m.mu.Unlock()
			m.emit(&AgentStateChangedEvent{State: e.State})

		case *transport.TranscriptSegmentEvent:
			m.aggregator.Upsert(transcript.Entry{
				ID:          e.ID,
				Origin:      e.Origin,
				Text:        e.Text,
				RevisionSeq: e.Revision,
				Final:       e.Final,
			})
			m.emit(&TranscriptUpdatedEvent{})
		}
	}
}

// handleDisconnected processes remote teardown: cached credentials are
// invalidated since real-time tokens are single-use.
func (m *Manager) handleDisconnected(tr transport.Transport) {
	m.watchdog.Cancel()

	m.mu.Lock()
	if m.current != tr {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.creds = nil
	m.epoch++
	m.agentState = transport.AgentDisconnected
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()
}

// Disconnect tears down the session. Idempotent and safe in any state;
// the manager always ends in StateDisconnected.
func (m *Manager) Disconnect() {
	m.watchdog.Cancel()

	m.mu.Lock()
	tr := m.current
	m.current = nil
	m.creds = nil
	m.pendingConnect = false
	m.epoch++
	m.agentState = transport.AgentDisconnected
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if tr != nil {
		_ = tr.Close()
	}
}

// DismissError clears the current-error slot and forces a disconnect.
func (m *Manager) DismissError() {
	m.mu.Lock()
	m.currentErr = nil
	m.mu.Unlock()
	m.Disconnect()
}

// onWatchdogExpired surfaces the terminal session-ended error. The
// watchdog fires at most once per arming, so exactly one error is
// surfaced per failed start.
func (m *Manager) onWatchdogExpired(reason string) {
	m.logger.Warn("agent availability watchdog expired", zap.String("reason", reason))
	m.surfaceError(core.ErrorDetails{
		Title:       "Session ended",
		Description: reason,
	})
}

func (m *Manager) surfaceError(details core.ErrorDetails) {
	m.mu.Lock()
	m.currentErr = &details
	m.mu.Unlock()
	m.emit(&ErrorSurfacedEvent{Details: details})
}

// setStateLocked transitions the state and emits the change. Callers
// must hold m.mu.
func (m *Manager) setStateLocked(newState State) {
	if m.state == newState {
		return
	}
	oldState := m.state
	m.state = newState
	m.logger.Debug("session state changed",
		zap.Stringer("from", oldState),
		zap.Stringer("to", newState))
	m.emit(&StateChangedEvent{From: oldState, To: newState})
}

// emit sends an event without blocking state transitions.
func (m *Manager) emit(event Event) {
	select {
	case m.events <- event:
	default:
	}
}
