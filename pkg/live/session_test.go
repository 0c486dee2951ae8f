package live

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/tmpl"
	"github.com/loom-ui/loom/pkg/view"
)

func wsURL(t *testing.T, baseURL, path string) string {
	t.Helper()
	if !strings.HasPrefix(baseURL, "http") {
		t.Fatalf("unexpected base URL: %q", baseURL)
	}
	return "ws" + strings.TrimPrefix(baseURL, "http") + path
}

func dialWS(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial(%q) failed: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// dialWSErr dials without failing the test, for handshake rejection checks.
func dialWSErr(url string) (*websocket.Conn, *http.Response, error) {
	return websocket.DefaultDialer.Dial(url, nil)
}

func newWebSocketPair(t *testing.T) (client *websocket.Conn, server *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverConnCh := make(chan *websocket.Conn, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		serverConnCh <- c
	}))
	t.Cleanup(ts.Close)

	client = dialWS(t, wsURL(t, ts.URL, "/ws"), nil)
	server = <-serverConnCh
	t.Cleanup(func() { _ = server.Close() })
	return client, server
}

func readFrame(t *testing.T, conn *websocket.Conn) *Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	frame, err := DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame *Frame) {
	t.Helper()
	data, err := EncodeFrame(frame)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
}

// counterPage mounts a counter view into a fresh document and returns both.
// Clicking .inc bumps the count and re-renders.
func counterPage(t *testing.T) (*dom.Document, *view.View) {
	t.Helper()

	doc := dom.NewDocument()
	count := 0
	v := view.New(doc, view.Definition{
		Name:     "counter",
		Template: tmpl.FromString("counter", `<p class="count">{{.}}</p><button class="inc">+1</button>`),
		Data:     func() (any, error) { return count, nil },
		Events: map[string]view.EventHandler{
			"click .inc": func(v *view.View, e *dom.Event) {
				count++
				if err := v.Render(); err != nil {
					t.Errorf("re-render failed: %v", err)
				}
			},
		},
	})
	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo failed: %v", err)
	}
	return doc, v
}

// newDetachedSession builds a session without a connection for pure dispatch
// tests. Frame sends fail with ErrNoConnection and are ignored.
func newDetachedSession(t *testing.T) (*Session, *view.View) {
	t.Helper()
	doc, v := counterPage(t)
	sess := newSession(nil, "/", doc, v, nil, DefaultConfig(), slog.Default())
	return sess, v
}

func TestResolvePath(t *testing.T) {
	doc := dom.NewDocument()
	if err := doc.Body().SetHTML(`<div id="a"><span>one</span><em>two</em></div><p id="b">para</p>`); err != nil {
		t.Fatalf("SetHTML failed: %v", err)
	}
	sess := newSession(nil, "/", doc, nil, nil, DefaultConfig(), slog.Default())

	tests := []struct {
		name string
		path []int
		want string // selector the result must match; "" means empty selection
	}{
		{"empty path is body", nil, "body"},
		{"first child", []int{0}, "#a"},
		{"nested", []int{0, 1}, "em"},
		{"second child", []int{1}, "#b"},
		{"out of range", []int{5}, ""},
		{"past a leaf", []int{0, 0, 0}, ""},
		{"negative", []int{-1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := sess.resolvePath(tt.path)
			if tt.want == "" {
				if sel.Length() != 0 {
					t.Fatalf("resolvePath(%v) = %d nodes, want empty", tt.path, sel.Length())
				}
				return
			}
			if sel.Length() != 1 || !sel.Is(tt.want) {
				t.Fatalf("resolvePath(%v) does not match %q", tt.path, tt.want)
			}
		})
	}
}

func TestHandleEventDispatchesIntoDocument(t *testing.T) {
	sess, _ := newDetachedSession(t)

	if got := sess.doc.Find(".count").Text(); got != "0" {
		t.Fatalf("initial count = %q, want %q", got, "0")
	}

	// Body -> view root (0) -> button (1).
	sess.handleEvent(NewEventFrame("click", []int{0, 1}, nil))

	if got := sess.doc.Find(".count").Text(); got != "1" {
		t.Errorf("count after click = %q, want %q", got, "1")
	}
	if sess.Stats().Events != 1 {
		t.Errorf("event count = %d, want 1", sess.Stats().Events)
	}
}

func TestDispatchEventUnresolvableTarget(t *testing.T) {
	sess, _ := newDetachedSession(t)

	err := sess.safeDispatch(&EventCtx{Session: sess, Event: "click", Path: []int{9, 9}})
	if !errors.Is(err, ErrNoTarget) {
		t.Fatalf("safeDispatch() error = %v, want %v", err, ErrNoTarget)
	}

	var sessErr *SessionError
	if !errors.As(err, &sessErr) {
		t.Fatalf("safeDispatch() error type = %T, want *SessionError", err)
	}
	if sessErr.SessionID != sess.ID {
		t.Errorf("SessionID = %q, want %q", sessErr.SessionID, sess.ID)
	}
}

func TestMiddlewareRunsOutermostFirst(t *testing.T) {
	doc, v := counterPage(t)

	var order []string
	mw := []Middleware{
		func(next EventFunc) EventFunc {
			return func(ec *EventCtx) error {
				order = append(order, "a")
				return next(ec)
			}
		},
		func(next EventFunc) EventFunc {
			return func(ec *EventCtx) error {
				order = append(order, "b")
				return next(ec)
			}
		},
	}

	sess := newSession(nil, "/", doc, v, mw, DefaultConfig(), slog.Default())
	sess.handleEvent(NewEventFrame("click", []int{0, 1}, nil))

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("middleware order = %v, want [a b]", order)
	}
	if got := doc.Find(".count").Text(); got != "1" {
		t.Errorf("count = %q, want %q (dispatch must still reach the document)", got, "1")
	}
}

func TestSafeDispatchRecoversPanic(t *testing.T) {
	doc, v := counterPage(t)
	mw := []Middleware{
		func(next EventFunc) EventFunc {
			return func(ec *EventCtx) error {
				panic("boom")
			}
		},
	}
	sess := newSession(nil, "/", doc, v, mw, DefaultConfig(), slog.Default())

	err := sess.safeDispatch(&EventCtx{Session: sess, Event: "click", Path: []int{0, 1}})
	if err == nil {
		t.Fatal("safeDispatch() error = nil, want panic error")
	}

	var dispErr *DispatchError
	if !errors.As(err, &dispErr) {
		t.Fatalf("safeDispatch() error type = %T, want *DispatchError", err)
	}
	if dispErr.Event != "click" {
		t.Errorf("Event = %q, want %q", dispErr.Event, "click")
	}
	if len(dispErr.Stack) == 0 {
		t.Error("Stack is empty, want captured stack trace")
	}
}

func TestExecuteDispatchRecoversPanic(t *testing.T) {
	sess, _ := newDetachedSession(t)

	// Must not crash the event loop.
	sess.executeDispatch(func() { panic("boom") })

	// A later dispatch still runs.
	ran := false
	sess.executeDispatch(func() { ran = true })
	if !ran {
		t.Error("dispatch after panic did not run")
	}
}

func TestQueueEventFull(t *testing.T) {
	doc, v := counterPage(t)
	cfg := DefaultConfig()
	cfg.MaxEventQueue = 1
	sess := newSession(nil, "/", doc, v, nil, cfg, slog.Default())

	if err := sess.QueueEvent(NewEventFrame("click", nil, nil)); err != nil {
		t.Fatalf("first QueueEvent() error: %v", err)
	}
	if err := sess.QueueEvent(NewEventFrame("click", nil, nil)); !errors.Is(err, ErrEventQueueFull) {
		t.Fatalf("second QueueEvent() error = %v, want %v", err, ErrEventQueueFull)
	}
}

func TestSendFrameWithoutConnection(t *testing.T) {
	sess, _ := newDetachedSession(t)

	if err := sess.sendFrame(NewPingFrame(1)); !errors.Is(err, ErrNoConnection) {
		t.Fatalf("sendFrame() error = %v, want %v", err, ErrNoConnection)
	}
	if err := sess.sendPing(); !errors.Is(err, ErrNoConnection) {
		t.Fatalf("sendPing() error = %v, want %v", err, ErrNoConnection)
	}
}

func TestCloseDisposesRootView(t *testing.T) {
	sess, v := newDetachedSession(t)

	closed := 0
	sess.config = sess.config.Clone()
	sess.config.OnSessionClose = func(*Session) { closed++ }

	sess.Close()

	if !sess.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if v.State() != view.StateDisposed {
		t.Errorf("root state = %v, want %v", v.State(), view.StateDisposed)
	}
	if sess.doc.Find(".count").Length() != 0 {
		t.Error("view subtree still in document after Close")
	}
	select {
	case <-sess.Done():
	default:
		t.Error("Done() not closed after Close")
	}
	if closed != 1 {
		t.Errorf("OnSessionClose ran %d times, want 1", closed)
	}

	// Second close is a no-op.
	sess.Close()
	if closed != 1 {
		t.Errorf("OnSessionClose ran %d times after double close, want 1", closed)
	}

	if err := sess.sendFrame(NewPingFrame(1)); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("sendFrame() after close error = %v, want %v", err, ErrSessionClosed)
	}
}

func TestSessionHelloAndEventRoundTrip(t *testing.T) {
	clientConn, serverConn := newWebSocketPair(t)

	doc, v := counterPage(t)
	sess := newSession(serverConn, "/", doc, v, nil, DefaultConfig(), slog.Default())
	t.Cleanup(sess.Close)

	if err := sess.sendHello(); err != nil {
		t.Fatalf("sendHello() error: %v", err)
	}
	sess.Start()

	hello := readFrame(t, clientConn)
	if hello.Type != FrameHello {
		t.Fatalf("frame type = %q, want %q", hello.Type, FrameHello)
	}
	if hello.Session != sess.ID {
		t.Errorf("hello session = %q, want %q", hello.Session, sess.ID)
	}
	if !strings.Contains(hello.HTML, `<p class="count">0</p>`) {
		t.Errorf("hello HTML = %q, want initial count markup", hello.HTML)
	}

	writeFrame(t, clientConn, NewEventFrame("click", []int{0, 1}, nil))

	update := readFrame(t, clientConn)
	if update.Type != FrameUpdate {
		t.Fatalf("frame type = %q, want %q", update.Type, FrameUpdate)
	}
	if update.Seq != 1 {
		t.Errorf("update seq = %d, want 1", update.Seq)
	}
	if !strings.Contains(update.HTML, `<p class="count">1</p>`) {
		t.Errorf("update HTML = %q, want bumped count markup", update.HTML)
	}
}

func TestSessionDispatchPushesUpdate(t *testing.T) {
	clientConn, serverConn := newWebSocketPair(t)

	doc, v := counterPage(t)
	sess := newSession(serverConn, "/", doc, v, nil, DefaultConfig(), slog.Default())
	t.Cleanup(sess.Close)
	sess.Start()

	sess.Dispatch(func() {
		doc.Body().Append(doc.MustParseFragment(`<aside id="note">dispatched</aside>`))
	})

	update := readFrame(t, clientConn)
	if update.Type != FrameUpdate {
		t.Fatalf("frame type = %q, want %q", update.Type, FrameUpdate)
	}
	if !strings.Contains(update.HTML, `id="note"`) {
		t.Errorf("update HTML = %q, want dispatched markup", update.HTML)
	}
}

func TestSessionAnswersClientPing(t *testing.T) {
	clientConn, serverConn := newWebSocketPair(t)

	doc, v := counterPage(t)
	sess := newSession(serverConn, "/", doc, v, nil, DefaultConfig(), slog.Default())
	t.Cleanup(sess.Close)
	sess.Start()

	writeFrame(t, clientConn, NewPingFrame(4242))

	pong := readFrame(t, clientConn)
	if pong.Type != FramePong {
		t.Fatalf("frame type = %q, want %q", pong.Type, FramePong)
	}
	if pong.TS != 4242 {
		t.Errorf("pong ts = %d, want 4242", pong.TS)
	}
}

func TestSessionStats(t *testing.T) {
	sess, _ := newDetachedSession(t)
	sess.handleEvent(NewEventFrame("click", []int{0, 1}, nil))

	stats := sess.Stats()
	if stats.ID != sess.ID {
		t.Errorf("stats ID = %q, want %q", stats.ID, sess.ID)
	}
	if stats.Page != "/" {
		t.Errorf("stats Page = %q, want %q", stats.Page, "/")
	}
	if stats.Events != 1 {
		t.Errorf("stats Events = %d, want 1", stats.Events)
	}
	if stats.LastActive.IsZero() {
		t.Error("stats LastActive is zero")
	}
}

func TestSessionDataStore(t *testing.T) {
	sess, _ := newDetachedSession(t)

	sess.Set("user", "matt")
	if got := sess.Get("user"); got != "matt" {
		t.Errorf("Get() = %v, want %q", got, "matt")
	}
	if !sess.Has("user") {
		t.Error("Has() = false, want true")
	}

	sess.Delete("user")
	if sess.Has("user") {
		t.Error("Has() = true after Delete")
	}
	if got := sess.Get("user"); got != nil {
		t.Errorf("Get() after Delete = %v, want nil", got)
	}
}

func TestGenerateSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateSessionID()
		if len(id) != 32 {
			t.Fatalf("id length = %d, want 32 hex chars", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}
