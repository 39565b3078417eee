// Package transport defines the real-time media session port consumed
// by the session manager. Room and track negotiation, codecs, and the
// wire protocol are the implementation's concern; the engine sees only
// connect/close, local audio publish, and a typed event stream.
package transport

import "context"

// AgentState is the remote agent's activity state as reported by the
// transport.
type AgentState string

const (
	AgentConnecting   AgentState = "connecting"
	AgentInitializing AgentState = "initializing"
	AgentListening    AgentState = "listening"
	AgentThinking     AgentState = "thinking"
	AgentSpeaking     AgentState = "speaking"
	AgentDisconnected AgentState = "disconnected"
)

// Available reports whether the agent is ready to take turns.
func (s AgentState) Available() bool {
	switch s {
	case AgentListening, AgentThinking, AgentSpeaking:
		return true
	default:
		return false
	}
}

// Transport is one real-time session to the media server.
type Transport interface {
	// Connect dials the server and joins as the token's participant.
	Connect(ctx context.Context, serverURL, token string) error

	// Close tears the session down. Idempotent.
	Close() error

	// Events returns the typed inbound event stream. The channel is
	// closed when the session ends.
	Events() <-chan Event

	// PublishAudio sends a local audio frame to the room.
	PublishAudio(data []byte) error

	// SetMetadata publishes participant metadata (e.g. the user id).
	SetMetadata(ctx context.Context, metadata string) error
}
