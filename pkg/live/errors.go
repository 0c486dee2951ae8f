package live

import (
	"errors"
	"fmt"
)

// Sentinel errors for common session and server error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("live: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("live: session not found")

	// ErrPageNotFound is returned when no view factory is registered for a path.
	ErrPageNotFound = errors.New("live: page not found")

	// ErrEventQueueFull is returned when the event queue is full and a frame is dropped.
	ErrEventQueueFull = errors.New("live: event queue full")

	// ErrMaxSessionsReached is returned when the maximum number of sessions is reached.
	ErrMaxSessionsReached = errors.New("live: max sessions reached")

	// ErrBadFrame is returned when an incoming frame cannot be decoded.
	ErrBadFrame = errors.New("live: bad frame")

	// ErrNoTarget is returned when an event frame names a node path that does
	// not resolve in the session document.
	ErrNoTarget = errors.New("live: event target not found")

	// ErrNoConnection is returned when attempting to send on a nil connection.
	ErrNoConnection = errors.New("live: no connection")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("live: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("live: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Op:        op,
		Err:       err,
	}
}

// DispatchError wraps a panic that occurred while dispatching a client event.
type DispatchError struct {
	SessionID string
	Event     string
	Panic     any
	Stack     []byte
}

// Error returns the error message.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("live: dispatch panic in session %s, event %s: %v",
		e.SessionID, e.Event, e.Panic)
}

// NewDispatchError creates a new DispatchError.
func NewDispatchError(sessionID, event string, panicVal any, stack []byte) *DispatchError {
	return &DispatchError{
		SessionID: sessionID,
		Event:     event,
		Panic:     panicVal,
		Stack:     stack,
	}
}
