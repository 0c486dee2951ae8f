package middleware

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/loom-ui/loom/pkg/live"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "loom",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the live server.
type metrics struct {
	eventsTotal     *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	eventErrors     *prometheus.CounterVec
	updatesSent     prometheus.Counter
	updateBytes     prometheus.Counter
	activeSessions  prometheus.Gauge
	sessionDuration prometheus.Histogram
	wsErrors        *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"page", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"page"}),

		eventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_errors_total",
			Help:        "Total number of event dispatch errors",
			ConstLabels: config.ConstLabels,
		}, []string{"page", "error_type"}),

		updatesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_sent_total",
			Help:        "Total number of document updates pushed to clients",
			ConstLabels: config.ConstLabels,
		}),

		updateBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_bytes_total",
			Help:        "Total bytes of document updates pushed to clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "session_duration_seconds",
			Help:        "Session lifetime in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 10, 60, 600, 3600, 21600}, // 1s to 6h
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for every
// dispatched event.
//
// Metrics collected:
//   - loom_events_total: Counter of events by page and status
//   - loom_event_duration_seconds: Histogram of event dispatch duration
//   - loom_event_errors_total: Counter of event errors by page and error type
//   - loom_updates_sent_total: Counter of document updates pushed
//   - loom_update_bytes_total: Counter of update payload bytes pushed
//   - loom_active_sessions: Gauge of active sessions (via InstrumentSessions)
//   - loom_session_duration_seconds: Histogram of session lifetimes
//   - loom_websocket_errors_total: Counter of WebSocket errors
//
// Example:
//
//	srv := live.New(nil)
//	srv.Use(middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) live.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next live.EventFunc) live.EventFunc {
		return func(ec *live.EventCtx) error {
			page := "/"
			var sentBefore uint64
			if ec.Session != nil {
				if ec.Session.Page != "" {
					page = ec.Session.Page
				}
				sentBefore = ec.Session.BytesSent()
			}

			// Time the dispatch
			start := time.Now()
			err := next(ec)
			m.eventDuration.WithLabelValues(page).Observe(time.Since(start).Seconds())

			// The dispatch at the end of the chain pushes at most one update.
			// The send counter delta tells us whether it did, and how large
			// the frame was.
			if ec.Session != nil {
				if delta := ec.Session.BytesSent() - sentBefore; delta > 0 {
					m.updatesSent.Inc()
					m.updateBytes.Add(float64(delta))
				}
			}

			status := "success"
			if err != nil {
				status = "error"
				m.eventErrors.WithLabelValues(page, categorizeError(err)).Inc()
			}
			m.eventsTotal.WithLabelValues(page, status).Inc()

			return err
		}
	}
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, live.ErrNoTarget):
		return "no_target"
	case errors.Is(err, live.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, live.ErrEventQueueFull):
		return "queue_full"
	}
	var dispatchErr *live.DispatchError
	if errors.As(err, &dispatchErr) {
		return "panic"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "template"):
		return "template"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "validation"):
		return "validation"
	case strings.Contains(msg, "websocket"):
		return "websocket"
	default:
		return "internal"
	}
}

// InstrumentSessions wires the active-session gauge and session lifetime
// histogram into a server config. Hooks already present on the config keep
// running after the metrics are recorded.
//
//	cfg := live.DefaultConfig()
//	middleware.InstrumentSessions(cfg)
//	srv := live.New(cfg)
func InstrumentSessions(cfg *live.Config) {
	prevStart := cfg.OnSessionStart
	cfg.OnSessionStart = func(ctx context.Context, s *live.Session) {
		RecordSessionStart()
		if prevStart != nil {
			prevStart(ctx, s)
		}
	}
	prevClose := cfg.OnSessionClose
	cfg.OnSessionClose = func(s *live.Session) {
		if s != nil {
			RecordSessionClose(time.Since(s.CreatedAt))
		}
		if prevClose != nil {
			prevClose(s)
		}
	}
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordUpdate records a document update pushed outside the event chain,
// such as a server-initiated Dispatch.
func RecordUpdate(bytes int) {
	if globalMetrics != nil {
		globalMetrics.updatesSent.Inc()
		globalMetrics.updateBytes.Add(float64(bytes))
	}
}

// RecordSessionStart records a new session.
func RecordSessionStart() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Inc()
	}
}

// RecordSessionClose records a session ending after the given lifetime.
func RecordSessionClose(lifetime time.Duration) {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Dec()
		globalMetrics.sessionDuration.Observe(lifetime.Seconds())
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if globalMetrics != nil {
		globalMetrics.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// =============================================================================
// Metrics Collector
// =============================================================================

// Collector returns the metrics for use in custom registrations.
// This allows collecting live-server metrics alongside other application
// metrics.
type Collector struct {
	eventsTotal     *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	eventErrors     *prometheus.CounterVec
	updatesSent     prometheus.Counter
	updateBytes     prometheus.Counter
	activeSessions  prometheus.Gauge
	sessionDuration prometheus.Histogram
	wsErrors        *prometheus.CounterVec
}

// GetMetrics returns the global metrics collector.
// Returns nil if Prometheus middleware has not been initialized.
func GetMetrics() *Collector {
	if globalMetrics == nil {
		return nil
	}
	return &Collector{
		eventsTotal:     globalMetrics.eventsTotal,
		eventDuration:   globalMetrics.eventDuration,
		eventErrors:     globalMetrics.eventErrors,
		updatesSent:     globalMetrics.updatesSent,
		updateBytes:     globalMetrics.updateBytes,
		activeSessions:  globalMetrics.activeSessions,
		sessionDuration: globalMetrics.sessionDuration,
		wsErrors:        globalMetrics.wsErrors,
	}
}
