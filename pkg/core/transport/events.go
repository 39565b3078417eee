package transport

import "github.com/reverielabs/reverie-lite/pkg/core/transcript"

// Event is the interface for all transport events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// ConnectedEvent is emitted once the session is established.
type ConnectedEvent struct {
	Room string `json:"room,omitempty"`
}

func (e *ConnectedEvent) EventType() string { return "session.connected" }

// DisconnectedEvent is emitted on explicit or remote teardown.
type DisconnectedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *DisconnectedEvent) EventType() string { return "session.disconnected" }

// MediaDeviceErrorEvent reports a mid-session hardware or driver
// failure. The session is kept alive; the caller decides whether to
// tear it down.
type MediaDeviceErrorEvent struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *MediaDeviceErrorEvent) EventType() string { return "media.device_error" }

// AgentStateEvent reports the remote agent's activity state.
type AgentStateEvent struct {
	State AgentState `json:"state"`
}

func (e *AgentStateEvent) EventType() string { return "agent.state" }

// TranscriptSegmentEvent carries one streamed text segment. Segments
// for the same ID may arrive repeatedly with increasing revisions until
// marked final.
type TranscriptSegmentEvent struct {
	ID       string            `json:"id"`
	Origin   transcript.Origin `json:"origin"`
	Text     string            `json:"text"`
	Revision uint64            `json:"revision"`
	Final    bool              `json:"final"`
}

func (e *TranscriptSegmentEvent) EventType() string { return "transcript.segment" }
