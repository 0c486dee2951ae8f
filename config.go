package loom

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/loom-ui/loom/pkg/live"
	"github.com/loom-ui/loom/pkg/tmpl"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
// This is the user-friendly entry point for configuring a loom app.
type Config struct {
	// Templates configures the template store behind PageTemplate and Pages.
	Templates TemplatesConfig

	// Static configures static file serving.
	Static StaticConfig

	// Server tunes the live view server (timeouts, limits, origins).
	Server ServerConfig

	// DevMode enables development conveniences: templates are re-read on
	// every request, the client script is served uncached and WebSocket
	// connections are accepted from any origin.
	// SECURITY: never enable in production.
	DevMode bool

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnSessionStart is called when a new WebSocket session is established.
	// It runs while the HTTP request context is still alive, so this is the
	// place to transfer request-scoped data (e.g. the authenticated user)
	// onto the session.
	//
	// Example:
	//
	//	OnSessionStart: func(httpCtx context.Context, s *loom.Session) {
	//	    if user := myauth.UserFromContext(httpCtx); user != nil {
	//	        s.Set("user", user)
	//	    }
	//	}
	OnSessionStart func(httpCtx context.Context, s *Session)

	// OnSessionClose is called once when a session ends, after its root
	// view has been disposed.
	OnSessionClose func(s *Session)
}

// TemplatesConfig configures where page templates come from.
type TemplatesConfig struct {
	// Store resolves template names. Use tmpl.NewDirStore,
	// tmpl.NewMemStore or tmpl.NewS3Store. When nil and Dir is set, a
	// directory store is built from Dir.
	Store tmpl.Store

	// Dir is the directory containing template files (e.g. "templates").
	// Ignored when Store is set.
	Dir string

	// Ext is the file extension appended when mapping URL paths to
	// template names (Pages serves "about" + Ext at "/about").
	// Default: ".html".
	Ext string

	// Funcs are made available to every template loaded from Dir.
	// Ignored when Store is set.
	Funcs template.FuncMap
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files (e.g. "public").
	// Files in this directory are served at the URL prefix.
	Dir string

	// Prefix is the URL path prefix for static files (e.g. "/").
	// A file at public/styles.css with Prefix="/" is served at /styles.css.
	// Default: "/".
	Prefix string

	// CacheControl determines caching behavior for static files.
	// Default: CacheControlNone.
	CacheControl CacheControlStrategy

	// Headers are custom headers to add to all static file responses.
	Headers map[string]string
}

// ServerConfig tunes the live view server.
type ServerConfig struct {
	// ReadTimeout is the maximum time to wait for a client message.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// ShutdownTimeout is how long Run waits for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxMessageSize bounds incoming WebSocket messages.
	// Default: 64KB.
	MaxMessageSize int64

	// MaxSessions is the maximum number of concurrent live sessions.
	// 0 means no limit.
	MaxSessions int

	// AllowedOrigins lists origins allowed for WebSocket connections.
	// When empty, only same-origin requests are allowed.
	// Example: []string{"https://myapp.com", "https://www.myapp.com"}
	AllowedOrigins []string

	// CheckOrigin overrides origin validation entirely.
	// Takes precedence over AllowedOrigins.
	CheckOrigin func(r *http.Request) bool

	// DisableCompression turns off WebSocket per-message compression.
	DisableCompression bool
}

// CacheControlStrategy determines caching behavior for static files.
type CacheControlStrategy int

const (
	// CacheControlNone disables browser caching entirely.
	// Use in development for instant updates.
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction uses appropriate caching:
	// - Fingerprinted files (*.abc123.css): immutable, 1 year max-age
	// - Other files: short cache with revalidation
	CacheControlProduction
)

// Session represents a live client session.
type Session = live.Session

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Templates: DefaultTemplatesConfig(),
		Static:    DefaultStaticConfig(),
		Server:    DefaultServerConfig(),
		DevMode:   false,
	}
}

// DefaultTemplatesConfig returns a TemplatesConfig with sensible defaults.
func DefaultTemplatesConfig() TemplatesConfig {
	return TemplatesConfig{
		Ext: ".html",
	}
}

// DefaultStaticConfig returns a StaticConfig with sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Prefix:       "/",
		CacheControl: CacheControlNone,
	}
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxMessageSize:    64 * 1024,
		MaxSessions:       0,
	}
}

// =============================================================================
// Config to live.Config Translation
// =============================================================================

// buildLiveConfig converts user-friendly loom.Config to the live server's
// internal configuration.
func buildLiveConfig(cfg Config) *live.Config {
	liveCfg := live.DefaultConfig()

	// Timeouts
	if cfg.Server.ReadTimeout > 0 {
		liveCfg.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout > 0 {
		liveCfg.WriteTimeout = cfg.Server.WriteTimeout
	}
	if cfg.Server.HeartbeatInterval > 0 {
		liveCfg.HeartbeatInterval = cfg.Server.HeartbeatInterval
	}
	if cfg.Server.ShutdownTimeout > 0 {
		liveCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}

	// Limits
	if cfg.Server.MaxMessageSize > 0 {
		liveCfg.MaxMessageSize = cfg.Server.MaxMessageSize
	}
	if cfg.Server.MaxSessions > 0 {
		liveCfg.MaxSessions = cfg.Server.MaxSessions
	}

	// Origin policy
	if cfg.Server.CheckOrigin != nil {
		liveCfg.CheckOrigin = cfg.Server.CheckOrigin
	} else if len(cfg.Server.AllowedOrigins) > 0 {
		origins := make(map[string]bool)
		for _, o := range cfg.Server.AllowedOrigins {
			origins[o] = true
		}
		liveCfg.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // No origin header (same-origin or non-browser)
			}
			return origins[origin]
		}
	}

	if cfg.Server.DisableCompression {
		liveCfg.EnableCompression = false
	}

	// DevMode accepts any origin so the preview works behind port forwards.
	if cfg.DevMode {
		liveCfg.DevMode = true
		liveCfg.CheckOrigin = func(*http.Request) bool { return true }
	}

	// Context bridge
	if cfg.OnSessionStart != nil {
		liveCfg.OnSessionStart = cfg.OnSessionStart
	}
	if cfg.OnSessionClose != nil {
		liveCfg.OnSessionClose = cfg.OnSessionClose
	}

	return liveCfg
}
