package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/view"
)

// Session represents a single WebSocket connection and its page state.
// Each session owns a private document and root view; all access to them is
// serialized on the session's event loop.
type Session struct {
	// Identity
	ID        string
	Page      string
	CreatedAt time.Time

	// Connection
	conn   *websocket.Conn
	mu     sync.Mutex // Protects conn writes
	closed atomic.Bool

	// Page state. Owned by the event loop; see Dispatch.
	doc  *dom.Document
	root *view.View

	// Update sequence numbers let the client detect dropped frames.
	sendSeq atomic.Uint64

	// Channels
	events     chan *Frame   // Incoming event frames
	dispatchCh chan func()   // Functions to run on the event loop
	done       chan struct{} // Shutdown signal

	// Dispatch chain: registered middleware around dispatchEvent.
	handler EventFunc

	// Configuration
	config *Config

	ctx    context.Context
	logger *slog.Logger

	// Metrics
	lastActive  atomic.Int64
	eventCount  atomic.Uint64
	updateCount atomic.Uint64
	bytesSent   atomic.Uint64
	bytesRecv   atomic.Uint64

	// General-purpose session data. Protected by dataMu.
	data   map[string]any
	dataMu sync.RWMutex
}

// generateSessionID generates a cryptographically random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// SECURITY: Fatal on entropy failure - weak IDs are dangerous
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession creates a new session around an established connection.
func newSession(conn *websocket.Conn, page string, doc *dom.Document, root *view.View, mw []Middleware, config *Config, logger *slog.Logger) *Session {
	id := generateSessionID()

	s := &Session{
		ID:         id,
		Page:       page,
		CreatedAt:  time.Now(),
		conn:       conn,
		doc:        doc,
		root:       root,
		events:     make(chan *Frame, config.MaxEventQueue),
		dispatchCh: make(chan func(), config.MaxEventQueue),
		done:       make(chan struct{}),
		config:     config,
		ctx:        context.Background(),
		logger:     logger.With("session_id", id),
		data:       make(map[string]any),
	}
	s.handler = chain(mw, s.dispatchEvent)
	s.touch()
	return s
}

// Start starts the session loops. Call after the hello frame has been sent.
func (s *Session) Start() {
	go s.ReadLoop()
	go s.WriteLoop()
	go s.EventLoop()
}

// ReadLoop continuously reads frames from the WebSocket connection.
// It blocks until the connection is closed or an error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	if s.config.MaxMessageSize > 0 {
		s.conn.SetReadLimit(s.config.MaxMessageSize)
	}

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		s.touch()
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.sendError("bad_frame", "invalid frame")
			continue
		}

		switch frame.Type {
		case FrameEvent:
			if err := s.QueueEvent(frame); err != nil {
				s.sendError("rate_limited", "event queue full")
			}

		case FramePong:
			s.logger.Debug("received pong", "ts", frame.TS)

		case FramePing:
			// Client-initiated ping; echo the timestamp back.
			s.sendFrame(NewPongFrame(frame.TS))

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

// WriteLoop sends heartbeat pings until the session is closed.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

// EventLoop processes queued event frames and dispatched callbacks. It is the
// only goroutine that touches the session document, which is what makes the
// single-goroutine ownership rule of pkg/dom and pkg/view hold.
func (s *Session) EventLoop() {
	for {
		select {
		case frame := <-s.events:
			s.handleEvent(frame)

		case fn := <-s.dispatchCh:
			s.executeDispatch(fn)

		case <-s.done:
			return
		}
	}
}

// QueueEvent queues an event frame for processing.
func (s *Session) QueueEvent(frame *Frame) error {
	select {
	case s.events <- frame:
		return nil
	default:
		s.logger.Warn("event queue full, dropping event", "event", frame.Event)
		return ErrEventQueueFull
	}
}

// Dispatch queues a function to run on the session's event loop. This is the
// only safe way to touch the session's document or views from another
// goroutine (timers, database callbacks). After fn returns, the client
// receives a fresh body update.
//
// Example:
//
//	go func() {
//	    rows, err := db.Load(ctx)
//	    sess.Dispatch(func() {
//	        if err != nil {
//	            showError(sess.Root(), err)
//	            return
//	        }
//	        showRows(sess.Root(), rows)
//	    })
//	}()
func (s *Session) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
		// Session is closing, discard
	default:
		s.logger.Warn("dispatch queue full, discarding callback")
	}
}

// handleEvent runs one client event through the dispatch chain and pushes the
// resulting body update.
func (s *Session) handleEvent(frame *Frame) {
	s.eventCount.Add(1)
	s.touch()

	ec := &EventCtx{
		Session: s,
		Event:   frame.Event,
		Path:    frame.Path,
		Data:    frame.Data,
		ctx:     s.ctx,
	}

	if err := s.safeDispatch(ec); err != nil {
		s.logger.Warn("event dispatch failed",
			"event", frame.Event,
			"path", frame.Path,
			"error", err)
		s.sendError("dispatch_failed", err.Error())
	}
}

// safeDispatch runs the dispatch chain with panic recovery.
func (s *Session) safeDispatch(ec *EventCtx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			s.logger.Error("dispatch panic",
				"panic", r,
				"event", ec.Event,
				"stack", string(stack))
			err = NewDispatchError(s.ID, ec.Event, r, stack)
		}
	}()

	return s.handler(ec)
}

// dispatchEvent is the end of the middleware chain: it resolves the event
// target in the session document, fires the event through the delegation
// registry, and sends the updated body to the client.
func (s *Session) dispatchEvent(ec *EventCtx) error {
	target := s.resolvePath(ec.Path)
	if target.Length() == 0 {
		return NewSessionError(s.ID, "dispatch "+ec.Event, ErrNoTarget)
	}

	target.TriggerData(ec.Event, ec.Data)
	s.sendUpdate()
	return nil
}

// resolvePath walks a child-index path from the body root to the target node.
// An out-of-range or negative hop yields an empty selection; Eq alone would
// read negative indexes from the end.
func (s *Session) resolvePath(path []int) *dom.Selection {
	sel := s.doc.Body()
	for _, i := range path {
		if i < 0 {
			return s.doc.EmptySelection()
		}
		sel = sel.Children().Eq(i)
		if sel.Length() == 0 {
			return sel
		}
	}
	return sel
}

// executeDispatch runs a dispatched function with panic recovery, then pushes
// a body update so the client sees whatever the callback changed.
func (s *Session) executeDispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			s.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(stack))
		}
	}()

	fn()
	s.sendUpdate()
}

// ============================================================================
// Outgoing frames
// ============================================================================

// sendHello sends the post-mount handshake frame with the initial render.
func (s *Session) sendHello() error {
	return s.sendFrame(NewHelloFrame(s.ID, s.doc.Body().HTML()))
}

// sendUpdate serializes the body and pushes it to the client.
func (s *Session) sendUpdate() {
	seq := s.sendSeq.Add(1)
	frame := NewUpdateFrame(seq, s.doc.Body().HTML())

	if err := s.sendFrame(frame); err != nil {
		return
	}
	s.updateCount.Add(1)
	s.logger.Debug("sent update", "seq", seq)
}

// sendError sends an error frame to the client.
func (s *Session) sendError(code, message string) {
	_ = s.sendFrame(NewErrorFrame(code, message))
}

// sendPing sends a heartbeat ping to the client.
func (s *Session) sendPing() error {
	return s.sendFrame(NewPingFrame(time.Now().UnixMilli()))
}

// sendFrame encodes and writes a frame under the write lock.
func (s *Session) sendFrame(frame *Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}

	// Guard against nil connection (can happen in tests)
	if s.conn == nil {
		s.logger.Warn("sendFrame: no connection available", "type", frame.Type)
		return ErrNoConnection
	}

	data, err := EncodeFrame(frame)
	if err != nil {
		s.logger.Error("frame encode error", "error", err)
		return err
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("write error", "error", err)
		s.closeInternal()
		return err
	}

	s.bytesSent.Add(uint64(len(data)))
	return nil
}

// ============================================================================
// Lifecycle
// ============================================================================

// Close gracefully closes the session.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		// Already closed
		return
	}
	s.closeInternal()
}

// closeInternal performs the actual close operations.
func (s *Session) closeInternal() {
	s.closed.Store(true)

	// Signal shutdown to goroutines
	select {
	case <-s.done:
		// Already closed
	default:
		close(s.done)
	}

	// Dispose the root view: handlers come off the delegation registry and
	// the subtree leaves the document.
	if s.root != nil && s.root.State() != view.StateDisposed {
		if err := s.root.Dispose(); err != nil {
			s.logger.Warn("root dispose failed", "error", err)
		}
	}

	// Send close message and close WebSocket
	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	}

	if s.config.OnSessionClose != nil {
		s.config.OnSessionClose(s)
	}

	s.logger.Info("session closed",
		"events", s.eventCount.Load(),
		"updates", s.updateCount.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}

// IsClosed reports whether the session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// touch updates the last activity timestamp.
func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last client activity.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// ============================================================================
// Accessors
// ============================================================================

// Document returns the session's server-side document. Only touch it from the
// event loop; see Dispatch.
func (s *Session) Document() *dom.Document {
	return s.doc
}

// Root returns the session's root view. Only touch it from the event loop;
// see Dispatch.
func (s *Session) Root() *view.View {
	return s.root
}

// Logger returns the session's logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Config returns the session's configuration.
func (s *Session) Config() *Config {
	return s.config
}

// BytesSent returns the total bytes written to the client.
func (s *Session) BytesSent() uint64 {
	return s.bytesSent.Load()
}

// BytesReceived returns the total bytes read from the client.
func (s *Session) BytesReceived() uint64 {
	return s.bytesRecv.Load()
}

// Stats summarizes a session for monitoring.
type Stats struct {
	ID         string
	Page       string
	CreatedAt  time.Time
	LastActive time.Time
	Events     uint64
	Updates    uint64
	BytesSent  uint64
	BytesRecv  uint64
}

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		ID:         s.ID,
		Page:       s.Page,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive(),
		Events:     s.eventCount.Load(),
		Updates:    s.updateCount.Load(),
		BytesSent:  s.bytesSent.Load(),
		BytesRecv:  s.bytesRecv.Load(),
	}
}

// ============================================================================
// Session data
// ============================================================================

// Get returns a value from the session's data store.
func (s *Session) Get(key string) any {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data[key]
}

// Set stores a value in the session's data store.
func (s *Session) Set(key string, value any) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data[key] = value
}

// Delete removes a value from the session's data store.
func (s *Session) Delete(key string) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	delete(s.data, key)
}

// Has reports whether a key exists in the session's data store.
func (s *Session) Has(key string) bool {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	_, ok := s.data[key]
	return ok
}
