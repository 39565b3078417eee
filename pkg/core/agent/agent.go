// Package agent provides the reflection and matching logic backed by a
// completion client.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reverielabs/reverie-lite/pkg/core/llm"
)

// UserProfile describes a user for matching.
type UserProfile struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Bio    string   `json:"bio,omitempty"`
	Values []string `json:"values,omitempty"`
	Goals  []string `json:"goals,omitempty"`
}

// MatchResult holds a compatibility score and a one-sentence reason.
type MatchResult struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Agent generates reflective replies and user matches. A nil completion
// client puts the agent in demo mode with canned fallbacks.
type Agent struct {
	client llm.Client
}

// New creates an agent. The client may be nil for demo mode.
func New(client llm.Client) *Agent {
	return &Agent{client: client}
}

// Respond generates a short reflective reply to the user's utterance.
func (a *Agent) Respond(ctx context.Context, userName, input string) (string, error) {
	if a.client == nil {
		return fmt.Sprintf("Hi %s! (demo) You said: %q.", userName, input), nil
	}

	prompt := fmt.Sprintf("You are a concise, kind voice agent helping %s reflect.\nUser said: %s\nReply in less than 60 words.", userName, input)
	text, err := a.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	return text, nil
}

// Match scores the compatibility of two user profiles. Unparseable model
// output degrades to a heuristic result instead of an error.
func (a *Agent) Match(ctx context.Context, userA, userB UserProfile) (MatchResult, error) {
	if a.client == nil {
		return MatchResult{
			Score:  72,
			Reason: "Demo fallback: similar interests inferred from local sample.",
		}, nil
	}

	jsonA, err := json.Marshal(userA)
	if err != nil {
		return MatchResult{}, fmt.Errorf("marshal profile: %w", err)
	}
	jsonB, err := json.Marshal(userB)
	if err != nil {
		return MatchResult{}, fmt.Errorf("marshal profile: %w", err)
	}

	prompt := fmt.Sprintf(`Given two user profiles as JSON, return a JSON with keys "score" (0-100) and "reason" (one sentence).
UserA: %s
UserB: %s
Return ONLY JSON like {"score":87,"reason":"..."}.`, jsonA, jsonB)

	text, err := a.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return MatchResult{}, fmt.Errorf("match: %w", err)
	}

	if result, ok := parseMatch(text); ok {
		return result, nil
	}
	return MatchResult{
		Score:  65,
		Reason: "Heuristic: moderate compatibility based on values and goals.",
	}, nil
}

func parseMatch(text string) (MatchResult, bool) {
	text = strings.TrimSpace(text)

	// Models sometimes wrap the JSON in a code fence despite the prompt.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var raw struct {
		Score  *float64 `json:"score"`
		Reason *string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return MatchResult{}, false
	}
	if raw.Score == nil || raw.Reason == nil {
		return MatchResult{}, false
	}
	return MatchResult{Score: int(*raw.Score), Reason: *raw.Reason}, true
}
