// Package core holds the shared error taxonomy for the voice engine.
package core

import (
	"errors"
	"fmt"
)

// ErrorType categorizes engine errors.
type ErrorType string

const (
	// ErrPermissionDenied is returned when device access is refused.
	// Surfaced to the caller, never retried automatically.
	ErrPermissionDenied ErrorType = "permission_denied"
	// ErrAlreadyRecording is returned when a capture is requested while
	// one is already in flight. Caller misuse; no state change.
	ErrAlreadyRecording ErrorType = "already_recording"
	// ErrTurnInProgress is returned when a turn is requested while one
	// is already in flight. Caller misuse; no state change.
	ErrTurnInProgress ErrorType = "turn_in_progress"
	// ErrDevice is a mid-session hardware or driver failure. Surfaced as
	// a dismissible error; the session stays alive until dismissed.
	ErrDevice ErrorType = "device_error"
	// ErrConnection is a transport connect failure. The session returns
	// to a recoverable state; retry is a fresh connect.
	ErrConnection ErrorType = "connection_error"
	// ErrSessionEnded is raised by the availability watchdog when the
	// remote agent fails to become ready in time.
	ErrSessionEnded ErrorType = "session_ended"
	// ErrProvider covers transcribe/respond/synthesize failures. Never a
	// hard failure; turns degrade gracefully instead.
	ErrProvider ErrorType = "provider_error"
)

// Error is the structured error reported by engine components.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsType reports whether err is a *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// NewPermissionDeniedError creates a permission denied error.
func NewPermissionDeniedError(message string) *Error {
	return &Error{Type: ErrPermissionDenied, Message: message}
}

// NewAlreadyRecordingError creates an already-recording error.
func NewAlreadyRecordingError() *Error {
	return &Error{Type: ErrAlreadyRecording, Message: "a recording is already in progress"}
}

// NewTurnInProgressError creates a turn-in-progress error.
func NewTurnInProgressError() *Error {
	return &Error{Type: ErrTurnInProgress, Message: "a turn is already in progress"}
}

// NewDeviceError creates a device error with an underlying cause.
func NewDeviceError(message string, cause error) *Error {
	return &Error{Type: ErrDevice, Message: message, Cause: cause}
}

// NewConnectionError creates a connection error with an underlying cause.
func NewConnectionError(message string, cause error) *Error {
	return &Error{Type: ErrConnection, Message: message, Cause: cause}
}

// NewSessionEndedError creates a watchdog session-ended error.
func NewSessionEndedError(reason string) *Error {
	return &Error{Type: ErrSessionEnded, Message: reason}
}

// NewProviderError creates a provider error naming the failing provider.
func NewProviderError(provider string, cause error) *Error {
	return &Error{
		Type:    ErrProvider,
		Message: fmt.Sprintf("%s: %v", provider, cause),
		Code:    provider,
		Cause:   cause,
	}
}

// ErrorDetails is the dismissible error surface shown to the user.
// Device and connection errors funnel into a single current-error slot.
type ErrorDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
