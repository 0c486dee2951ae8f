package live

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged over the session WebSocket. All frames are JSON text
// messages with a "type" discriminator; unused fields are omitted.
const (
	// FrameHello is sent by the server after the session is mounted. It
	// carries the session ID and the initial render of the page body.
	FrameHello = "hello"

	// FrameUpdate is sent by the server after event dispatch. It carries the
	// full rendered page body; the client swaps it in wholesale.
	FrameUpdate = "update"

	// FrameEvent is sent by the client when a DOM event fires. It carries the
	// event type, the target's child-index path from the body root, and any
	// event payload (input values, form fields).
	FrameEvent = "event"

	// FrameError is sent by the server when a frame cannot be processed.
	FrameError = "error"

	// FramePing and FramePong implement the application-level heartbeat. The
	// server pings on HeartbeatInterval; the client echoes the timestamp back.
	FramePing = "ping"
	FramePong = "pong"
)

// Frame is the wire format for all session messages.
type Frame struct {
	Type string `json:"type"`

	// Server -> client
	Session string `json:"session,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	HTML    string `json:"html,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	// Client -> server
	Event string         `json:"event,omitempty"`
	Path  []int          `json:"path,omitempty"`
	Data  map[string]any `json:"data,omitempty"`

	// Heartbeat
	TS int64 `json:"ts,omitempty"`
}

// NewHelloFrame creates the post-mount handshake frame.
func NewHelloFrame(sessionID, html string) *Frame {
	return &Frame{Type: FrameHello, Session: sessionID, HTML: html}
}

// NewUpdateFrame creates a body update frame.
func NewUpdateFrame(seq uint64, html string) *Frame {
	return &Frame{Type: FrameUpdate, Seq: seq, HTML: html}
}

// NewEventFrame creates a client event frame. Used by tests and by Go-side
// clients; the browser client builds the same JSON directly.
func NewEventFrame(event string, path []int, data map[string]any) *Frame {
	return &Frame{Type: FrameEvent, Event: event, Path: path, Data: data}
}

// NewErrorFrame creates an error frame.
func NewErrorFrame(code, message string) *Frame {
	return &Frame{Type: FrameError, Code: code, Message: message}
}

// NewPingFrame creates a heartbeat ping carrying the current timestamp.
func NewPingFrame(ts int64) *Frame {
	return &Frame{Type: FramePing, TS: ts}
}

// NewPongFrame creates a heartbeat reply echoing the ping timestamp.
func NewPongFrame(ts int64) *Frame {
	return &Frame{Type: FramePong, TS: ts}
}

// EncodeFrame serializes a frame for the wire.
func EncodeFrame(f *Frame) ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses a wire message into a frame and validates it.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrBadFrame)
	}
	if f.Type == FrameEvent && f.Event == "" {
		return nil, fmt.Errorf("%w: event frame missing event name", ErrBadFrame)
	}
	return &f, nil
}
