package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loom-ui/loom/pkg/live"
	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newEventCtx builds an event as the dispatch chain would see it. The session
// is left nil; middleware must work for events without one.
func newEventCtx(event string) *live.EventCtx {
	return &live.EventCtx{
		Event: event,
		Path:  []int{0, 1},
		Data:  map[string]any{"value": "x"},
	}
}

// =============================================================================
// OpenTelemetry Tests
// =============================================================================

func TestOpenTelemetryConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		config := defaultOTelConfig()
		if config.TracerName != defaultTracerName {
			t.Errorf("TracerName = %q, want %q", config.TracerName, defaultTracerName)
		}
		if config.IncludeData {
			t.Error("IncludeData should be false by default")
		}
		if !config.IncludePage {
			t.Error("IncludePage should be true by default")
		}
	})

	t.Run("with options", func(t *testing.T) {
		config := defaultOTelConfig()
		WithTracerName("my-app")(&config)
		WithIncludeData(true)(&config)
		WithIncludePage(false)(&config)

		if config.TracerName != "my-app" {
			t.Errorf("TracerName = %q, want %q", config.TracerName, "my-app")
		}
		if !config.IncludeData {
			t.Error("IncludeData should be true")
		}
		if config.IncludePage {
			t.Error("IncludePage should be false")
		}
	})

	t.Run("with filter", func(t *testing.T) {
		filter := func(ec *live.EventCtx) bool {
			return ec.Event != "pointermove"
		}
		config := defaultOTelConfig()
		WithEventFilter(filter)(&config)

		if config.Filter == nil {
			t.Error("Filter should be set")
		}
	})
}

func TestFormatSpanName(t *testing.T) {
	tests := []struct {
		event string
		want  string
	}{
		{"click", "loom.click"},
		{"input", "loom.input"},
		{"submit", "loom.submit"},
		{"", "loom.dispatch"},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			got := formatSpanName(&live.EventCtx{Event: tt.event})
			if got != tt.want {
				t.Errorf("formatSpanName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Prometheus Metrics Tests
// =============================================================================

func TestMetricsConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		config := defaultMetricsConfig()
		if config.Namespace != "loom" {
			t.Errorf("Namespace = %q, want %q", config.Namespace, "loom")
		}
		if config.Subsystem != "" {
			t.Errorf("Subsystem = %q, want empty", config.Subsystem)
		}
		if config.Registry != prometheus.DefaultRegisterer {
			t.Error("Registry should be DefaultRegisterer")
		}
	})

	t.Run("with options", func(t *testing.T) {
		config := defaultMetricsConfig()
		WithNamespace("myapp")(&config)
		WithSubsystem("ui")(&config)
		WithBuckets([]float64{0.1, 0.5, 1.0})(&config)

		if config.Namespace != "myapp" {
			t.Errorf("Namespace = %q, want %q", config.Namespace, "myapp")
		}
		if config.Subsystem != "ui" {
			t.Errorf("Subsystem = %q, want %q", config.Subsystem, "ui")
		}
		if len(config.Buckets) != 3 {
			t.Errorf("len(Buckets) = %d, want 3", len(config.Buckets))
		}
	})
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no target sentinel", live.ErrNoTarget, "no_target"},
		{"wrapped no target", live.NewSessionError("s1", "dispatch click", live.ErrNoTarget), "no_target"},
		{"session closed", live.ErrSessionClosed, "session_closed"},
		{"queue full", live.ErrEventQueueFull, "queue_full"},
		{"dispatch panic", live.NewDispatchError("s1", "click", "boom", nil), "panic"},
		{"timeout text", errors.New("timeout exceeded"), "timeout"},
		{"template text", errors.New("template: count:1: bad range"), "template"},
		{"not found text", errors.New("resource not found"), "not_found"},
		{"validation text", errors.New("validation error"), "validation"},
		{"websocket text", errors.New("websocket: close sent"), "websocket"},
		{"other", errors.New("some other error"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err)
			if got != tt.want {
				t.Errorf("categorizeError(%q) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestMetricsRecordFunctions(t *testing.T) {
	// These functions should not panic even when globalMetrics is nil
	t.Run("record functions handle nil metrics", func(t *testing.T) {
		resetGlobalMetricsForTest()

		RecordUpdate(512)
		RecordSessionStart()
		RecordSessionClose(3 * time.Second)
		RecordWebSocketError("close")
	})
}

func TestGetMetrics(t *testing.T) {
	resetGlobalMetricsForTest()

	// Should return nil when not initialized
	if GetMetrics() != nil {
		t.Error("GetMetrics() should return nil when not initialized")
	}
}

func TestInstrumentSessionsChainsHooks(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()
	_ = Prometheus(WithRegistry(reg))

	cfg := live.DefaultConfig()
	startCalls := 0
	closeCalls := 0
	cfg.OnSessionStart = func(context.Context, *live.Session) { startCalls++ }
	cfg.OnSessionClose = func(*live.Session) { closeCalls++ }

	InstrumentSessions(cfg)

	cfg.OnSessionStart(context.Background(), nil)
	cfg.OnSessionClose(nil)

	if startCalls != 1 {
		t.Errorf("previous start hook ran %d times, want 1", startCalls)
	}
	if closeCalls != 1 {
		t.Errorf("previous close hook ran %d times, want 1", closeCalls)
	}

	c := GetMetrics()
	if c == nil {
		t.Fatal("expected GetMetrics to return collector after initialization")
	}
	if got := metricGaugeValue(t, c.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1 (start recorded, nil-session close skipped)", got)
	}
}
