// Package tts provides text-to-speech functionality.
package tts

import (
	"context"

	"github.com/reverielabs/reverie-lite/pkg/core/audio"
)

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to an encoded audio clip using the
	// given voice identifier.
	Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error)
}
