// Package identity exposes the signed-in user to the rest of the engine.
package identity

import (
	"context"
	"sync"
)

// Identity is the user a session runs as.
type Identity struct {
	ID   string
	Name string
}

// Provider resolves the current user. Implementations back onto whatever
// auth layer the embedding app uses.
type Provider interface {
	Current(ctx context.Context) (Identity, error)
	SignOut(ctx context.Context) error
}

// StaticProvider holds a fixed identity in memory. SignOut clears it.
type StaticProvider struct {
	mu       sync.Mutex
	identity Identity
}

// NewStatic creates a provider for the given identity.
func NewStatic(id Identity) *StaticProvider {
	return &StaticProvider{identity: id}
}

// Current returns the held identity.
func (p *StaticProvider) Current(ctx context.Context) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity, nil
}

// SignOut clears the held identity.
func (p *StaticProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = Identity{}
	return nil
}
