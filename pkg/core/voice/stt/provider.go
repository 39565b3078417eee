// Package stt provides speech-to-text functionality.
package stt

import "context"

// Provider is the interface for speech-to-text services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts an encoded audio clip to plain text.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// extensionFromMIME infers the upload filename extension from the
// buffer's MIME type.
func extensionFromMIME(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/m4a", "audio/x-m4a", "audio/mp4":
		return "m4a"
	default:
		return "webm"
	}
}
