// Package llm provides chat completion clients used by the agent layer.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn sent to a completion model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client produces a completion for a chat transcript.
type Client interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}
