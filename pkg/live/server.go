package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/view"
)

// ViewFactory builds the root view for a page into the given document. The
// factory may attach the view itself; when it returns a detached view the
// server appends it to the document body.
type ViewFactory func(ctx context.Context, doc *dom.Document) (*view.View, error)

// Server upgrades page connections to WebSocket sessions and serves
// plain-HTML renders of registered pages.
type Server struct {
	// Configuration
	config *Config

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// Registered pages and dispatch middleware. Guarded by mu.
	mu         sync.RWMutex
	pages      map[string]ViewFactory
	sessions   map[string]*Session
	middleware []Middleware

	// HTTP server
	httpServer *http.Server

	// Logger
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.Clone()
		config.fillDefaults()
	}

	s := &Server{
		config:   config,
		pages:    make(map[string]ViewFactory),
		sessions: make(map[string]*Session),
		logger:   slog.Default().With("component", "live"),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:    config.ReadBufferSize,
		WriteBufferSize:   config.WriteBufferSize,
		CheckOrigin:       config.CheckOrigin,
		EnableCompression: config.EnableCompression,
	}

	return s
}

// Handle registers a view factory for a page path.
func (s *Server) Handle(path string, factory ViewFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = factory
}

// Use appends middleware to the event dispatch chain. Must be called before
// sessions are created; later calls do not affect existing sessions.
func (s *Server) Use(mw ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, mw...)
}

// ServeHTTP dispatches internal endpoints and page renders.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check for WebSocket upgrade
	if r.URL.Path == "/_loom/ws" {
		s.HandleWebSocket(w, r)
		return
	}

	// Internal assets
	if r.URL.Path == "/_loom/client.js" {
		s.serveClient(w, r)
		return
	}

	s.renderPage(w, r)
}

// HandleWebSocket upgrades the connection and starts a session for the page
// named by the "page" query parameter.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = "/"
	}

	if !s.hasPage(page) {
		http.Error(w, "Unknown page", http.StatusNotFound)
		return
	}

	if s.config.MaxSessions > 0 && s.SessionCount() >= s.config.MaxSessions {
		s.logger.Warn("session limit reached", "max", s.config.MaxSessions)
		http.Error(w, "Too many sessions", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	doc, root, err := s.mountPage(r.Context(), page)
	if err != nil {
		s.logger.Error("page mount failed", "page", page, "error", err)
		s.rejectConn(conn, "mount_failed", "page mount failed")
		return
	}

	sess := newSession(conn, page, doc, root, s.snapshotMiddleware(), s.config, s.logger)

	// Copy request-scoped data while r.Context() is still alive.
	if s.config.OnSessionStart != nil {
		s.config.OnSessionStart(r.Context(), sess)
	}

	s.addSession(sess)

	if err := sess.sendHello(); err != nil {
		s.removeSession(sess.ID)
		sess.Close()
		return
	}

	sess.Start()

	// Reap the registry entry when the session ends.
	go func() {
		<-sess.Done()
		s.removeSession(sess.ID)
	}()

	s.logger.Info("session started", "session_id", sess.ID, "page", page)
}

// mountPage builds a fresh document for a page and mounts its root view.
func (s *Server) mountPage(ctx context.Context, page string) (*dom.Document, *view.View, error) {
	factory := s.pageFactory(page)
	if factory == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPageNotFound, page)
	}

	doc := dom.NewDocument()
	root, err := factory(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("view factory for %s: %w", page, err)
	}
	if root == nil {
		return nil, nil, fmt.Errorf("view factory for %s returned no view", page)
	}

	// Factories may attach the root themselves; otherwise mount it under body.
	if !root.Root().Connected() {
		if err := root.AppendTo("body"); err != nil {
			return nil, nil, err
		}
	} else if root.State() == view.StateUnrendered {
		if err := root.Render(); err != nil {
			return nil, nil, err
		}
	}

	return doc, root, nil
}

// renderPage serves the plain-HTML render of a page with the client script
// injected, ready to hand off to a WebSocket session.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, _, err := s.mountPage(r.Context(), r.URL.Path)
	if err != nil {
		if s.pageFactory(r.URL.Path) == nil {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("page render failed", "page", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	doc.Head().Append(doc.MustParseFragment(
		`<script src="/_loom/client.js" defer></script>`))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	fmt.Fprint(w, doc.HTML())
}

// rejectConn sends an error frame on a fresh connection and closes it.
func (s *Server) rejectConn(conn *websocket.Conn, code, message string) {
	if data, err := EncodeFrame(NewErrorFrame(code, message)); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
	conn.Close()
}

// Run starts the HTTP server and blocks until a shutdown signal or a server
// error. SIGINT and SIGTERM trigger a graceful shutdown.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s,
	}

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("live server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server and closes all sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	for _, sess := range s.snapshotSessions() {
		sess.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("live server shutdown complete")
	return nil
}

// ============================================================================
// Registry
// ============================================================================

func (s *Server) pageFactory(page string) ViewFactory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages[page]
}

func (s *Server) hasPage(page string) bool {
	return s.pageFactory(page) != nil
}

func (s *Server) snapshotMiddleware() []Middleware {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mw := make([]Middleware, len(s.middleware))
	copy(mw, s.middleware)
	return mw
}

func (s *Server) addSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) snapshotSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Session returns the session with the given ID.
func (s *Server) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SessionCount returns the number of active sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionStats returns a snapshot of every active session's counters.
func (s *Server) SessionStats() []Stats {
	sessions := s.snapshotSessions()
	out := make([]Stats, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Stats())
	}
	return out
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}
