package loom

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/live"
	"github.com/loom-ui/loom/pkg/tmpl"
	"github.com/loom-ui/loom/pkg/view"
)

// livePrefix is where the live server's internal endpoints (WebSocket,
// client script) are mounted.
const livePrefix = "/_loom"

// ViewFactory builds the root view for a page. See live.ViewFactory.
type ViewFactory = live.ViewFactory

// =============================================================================
// App Type
// =============================================================================

// App is the main loom application entry point.
// It wraps the live server, a chi router and static file serving into a
// single http.Handler.
//
// Create an App with loom.New():
//
//	app := loom.New(loom.Config{
//	    Templates: loom.TemplatesConfig{Dir: "templates"},
//	    Static:    loom.StaticConfig{Dir: "public", Prefix: "/static/"},
//	    DevMode:   os.Getenv("ENV") != "production",
//	})
//
//	app.Page("/", HomePage)
//	app.Run(":3000")
type App struct {
	// Internal components
	server *live.Server
	mux    *chi.Mux
	store  tmpl.Store

	// Static file serving
	staticDir    string
	staticPrefix string
	staticFS     http.FileSystem

	// Configuration
	config Config
	logger *slog.Logger

	httpServer *http.Server
}

// New creates a new loom application with the given configuration.
func New(cfg Config) *App {
	// Apply defaults
	if cfg.Static.Prefix == "" {
		cfg.Static.Prefix = DefaultStaticConfig().Prefix
	}
	if cfg.Templates.Ext == "" {
		cfg.Templates.Ext = DefaultTemplatesConfig().Ext
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := live.New(buildLiveConfig(cfg))
	server.SetLogger(logger.With("component", "live"))

	store := cfg.Templates.Store
	if store == nil && cfg.Templates.Dir != "" {
		var opts []tmpl.StoreOption
		if cfg.Templates.Funcs != nil {
			opts = append(opts, tmpl.WithFuncs(cfg.Templates.Funcs))
		}
		if cfg.DevMode {
			opts = append(opts, tmpl.WithoutCache())
		}
		store = tmpl.NewDirStore(cfg.Templates.Dir, opts...)
	}

	app := &App{
		server:       server,
		mux:          chi.NewRouter(),
		store:        store,
		staticDir:    cfg.Static.Dir,
		staticPrefix: cfg.Static.Prefix,
		config:       cfg,
		logger:       logger,
	}

	if cfg.Static.Dir != "" {
		app.staticFS = http.Dir(cfg.Static.Dir)
	}

	app.mountRoutes()

	return app
}

// mountRoutes wires the fixed routes. Pages registered later land as
// literal chi routes, which win over the static wildcard.
func (a *App) mountRoutes() {
	a.mux.Mount(livePrefix, a.server)

	if a.staticFS != nil {
		prefix := a.staticPrefix
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.mux.Get(prefix+"*", a.serveStatic)
		a.mux.Head(prefix+"*", a.serveStatic)
	}
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Handler returns the App as an http.Handler.
// This is useful for explicit type conversion or middleware wrapping.
func (a *App) Handler() http.Handler {
	return a
}

// =============================================================================
// Page Registration
// =============================================================================

// Page registers a view factory at a URL path. The path is served two
// ways: a plain GET returns the rendered HTML shell, and the WebSocket
// endpoint upgrades the same page into a live session.
//
// Paths are exact ("/", "/about", "/admin/users"); there is no pattern
// matching. Register one factory per page.
func (a *App) Page(path string, factory ViewFactory) {
	a.server.Handle(path, factory)
	a.mux.Get(path, a.server.ServeHTTP)
	a.mux.Head(path, a.server.ServeHTTP)
}

// PageView registers a page that constructs a fresh view from def on
// every request.
func (a *App) PageView(path string, def view.Definition) {
	a.Page(path, func(ctx context.Context, doc *dom.Document) (*view.View, error) {
		return view.New(doc, def), nil
	})
}

// PageTemplate registers a page whose root view renders the named template
// from the app's template store. A nil data producer executes the template
// with no data.
func (a *App) PageTemplate(path, name string, data tmpl.DataFunc) {
	a.Page(path, func(ctx context.Context, doc *dom.Document) (*view.View, error) {
		if a.store == nil {
			return nil, fmt.Errorf("page %s: no template store configured", path)
		}
		v := view.New(doc, view.Definition{
			Name:     name,
			Template: tmpl.Producer(ctx, a.store, name),
			Data:     data,
		})
		return v, nil
	})
}

// Pages registers one page per template in the store. Template names map
// to URL paths by trimming the configured extension: "about.html" is
// served at "/about", "admin/users.html" at "/admin/users". An "index"
// template maps to its directory root, so "index.html" serves "/".
//
// The store must implement tmpl.Lister (every store in pkg/tmpl does).
// Returns the registered paths in template-name order.
func (a *App) Pages(ctx context.Context) ([]string, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no template store configured")
	}
	lister, ok := a.store.(tmpl.Lister)
	if !ok {
		return nil, fmt.Errorf("template store %T cannot list templates", a.store)
	}

	names, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}

	ext := a.config.Templates.Ext
	var paths []string
	for _, name := range names {
		if !strings.HasSuffix(name, ext) {
			continue
		}
		p := pagePath(name, ext)
		a.PageTemplate(p, name, nil)
		paths = append(paths, p)
	}
	return paths, nil
}

// pagePath maps a template name to the URL path it is served at.
func pagePath(name, ext string) string {
	p := strings.TrimSuffix(name, ext)
	if p == "index" {
		return "/"
	}
	p = strings.TrimSuffix(p, "/index")
	return "/" + p
}

// Use appends middleware to the live event dispatch chain.
//
//	app.Use(middleware.Prometheus(), middleware.OpenTelemetry())
func (a *App) Use(mw ...live.Middleware) {
	a.server.Use(mw...)
}

// =============================================================================
// Component Access
// =============================================================================

// Server returns the underlying live server for advanced configuration.
// Most apps won't need this.
func (a *App) Server() *live.Server {
	return a.server
}

// Router returns the underlying chi router. Use it to add plain HTTP
// routes next to loom pages.
//
//	app.Router().Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
//	    w.Write([]byte("ok"))
//	})
func (a *App) Router() chi.Router {
	return a.mux
}

// Store returns the template store, or nil when none is configured.
func (a *App) Store() tmpl.Store {
	return a.store
}

// Config returns the app configuration.
func (a *App) Config() Config {
	return a.config
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run starts the HTTP server on addr and blocks until a shutdown signal or
// a server error. SIGINT and SIGTERM trigger a graceful shutdown that
// closes live sessions first.
//
//	app := loom.New(cfg)
//	app.Page("/", HomePage)
//	app.Run(":3000")
func (a *App) Run(addr string) error {
	if addr == "" {
		addr = a.server.Config().Address
	}

	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: a,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("loom app starting", "address", addr)
		errCh <- a.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		a.logger.Info("shutting down...")
		return a.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server and closes all live sessions.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.server.Config().ShutdownTimeout)
	defer cancel()

	// Sessions ride hijacked connections, which http.Server.Shutdown does
	// not wait for. Close them first.
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	a.logger.Info("app shutdown complete")
	return nil
}
