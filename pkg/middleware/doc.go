// Package middleware provides production-grade middleware for loom live
// servers.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware traces every client event dispatched through
// a live server, providing distributed tracing across your application.
// Traces include session ID, event type, page, and update sizes.
//
//	srv := live.New(nil)
//	srv.Use(middleware.OpenTelemetry())
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithIncludeData(true),
//	    middleware.WithEventFilter(func(ec *live.EventCtx) bool {
//	        return ec.Event != "pointermove"
//	    }),
//	)
//
// # Prometheus Metrics
//
// The Prometheus middleware collects metrics about your live server:
//   - loom_active_sessions: Current number of active sessions
//   - loom_events_total: Total events dispatched by page and status
//   - loom_event_duration_seconds: Event dispatch duration histogram
//   - loom_updates_sent_total: Total document updates pushed to clients
//
//	srv.Use(middleware.Prometheus())
//
// Session-level metrics come from config hooks:
//
//	cfg := live.DefaultConfig()
//	middleware.InstrumentSessions(cfg)
//	srv := live.New(cfg)
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # Context Propagation
//
// The OpenTelemetry middleware replaces the dispatch context with the span
// context, so anything downstream that uses ec.Context() inherits the trace:
//
//	srv.Use(func(next live.EventFunc) live.EventFunc {
//	    return func(ec *live.EventCtx) error {
//	        // Database call inherits trace context
//	        row := db.QueryRowContext(ec.Context(), "SELECT ...")
//	        _ = row
//	        return next(ec)
//	    }
//	})
//
// Register the tracing middleware first so the span context is in place for
// the rest of the chain.
package middleware
