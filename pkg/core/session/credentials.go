package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenEndpoint issues sandbox connection details.
const DefaultTokenEndpoint = "https://cloud-api.livekit.io/api/sandbox/connection-details"

// ConnectionDetails are the single-use credentials for one connection
// attempt.
type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	ParticipantToken string `json:"participantToken"`
}

// Expired reports whether the participant token's exp claim has passed.
// The token is not verified here; the client only inspects expiry to
// decide whether cached credentials are stale. Tokens without a
// readable exp claim are treated as fresh.
func (d *ConnectionDetails) Expired(now time.Time) bool {
	if d == nil || d.ParticipantToken == "" {
		return true
	}
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(d.ParticipantToken, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}

// CredentialSource fetches connection details for a new session.
type CredentialSource interface {
	Fetch(ctx context.Context) (*ConnectionDetails, error)
}

// SandboxSource fetches credentials from a token-issuing endpoint using
// a sandbox identifier, falling back to a statically configured pair
// when no sandbox is set.
type SandboxSource struct {
	Endpoint  string
	SandboxID string

	// StaticServerURL and StaticToken are used when SandboxID is empty.
	// Without either configuration no connection is possible.
	StaticServerURL string
	StaticToken     string

	HTTPClient *http.Client
}

// ErrNoCredentialConfig is returned when neither a sandbox id nor a
// static endpoint/token pair is configured.
var ErrNoCredentialConfig = errors.New("no sandbox id or static credentials configured")

// Fetch implements CredentialSource.
func (s *SandboxSource) Fetch(ctx context.Context) (*ConnectionDetails, error) {
	if s.SandboxID == "" {
		if s.StaticServerURL != "" && s.StaticToken != "" {
			return &ConnectionDetails{
				ServerURL:        s.StaticServerURL,
				ParticipantToken: s.StaticToken,
			}, nil
		}
		return nil, ErrNoCredentialConfig
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultTokenEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("X-Sandbox-ID", s.SandboxID)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch connection details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var details ConnectionDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("decode connection details: %w", err)
	}
	if details.ServerURL == "" || details.ParticipantToken == "" {
		return nil, errors.New("token endpoint returned incomplete connection details")
	}
	return &details, nil
}
