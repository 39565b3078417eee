package session

import (
	"github.com/reverielabs/reverie-lite/pkg/core"
	"github.com/reverielabs/reverie-lite/pkg/core/transport"
)

// Event is the interface for all session manager events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted when the connection state changes.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "session.state_changed" }

// AgentStateChangedEvent reports the remote agent's activity state.
type AgentStateChangedEvent struct {
	State transport.AgentState `json:"state"`
}

func (e *AgentStateChangedEvent) EventType() string { return "session.agent_state" }

// ErrorSurfacedEvent is emitted when an error lands in the dismissible
// current-error slot.
type ErrorSurfacedEvent struct {
	Details core.ErrorDetails `json:"details"`
}

func (e *ErrorSurfacedEvent) EventType() string { return "session.error" }

// TranscriptUpdatedEvent signals that the aggregated transcript gained
// or revised an entry.
type TranscriptUpdatedEvent struct{}

func (e *TranscriptUpdatedEvent) EventType() string { return "session.transcript_updated" }
