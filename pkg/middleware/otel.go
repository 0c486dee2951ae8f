package middleware

import (
	"fmt"
	"time"

	"github.com/loom-ui/loom/pkg/live"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for loom applications.
const defaultTracerName = "loom"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// IncludeData includes the event payload in traces.
	// May contain sensitive user input - disabled by default.
	IncludeData bool

	// IncludePage includes the session's page path in traces.
	// Enabled by default.
	IncludePage bool

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ec *live.EventCtx) bool

	// AttributeExtractor extracts custom attributes from the event.
	// Called for each traced event.
	AttributeExtractor func(ec *live.EventCtx) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeData enables including the event payload in traces.
func WithIncludeData(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeData = include
	}
}

// WithIncludePage enables/disables including the page path in traces.
func WithIncludePage(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludePage = include
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ec *live.EventCtx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ec *live.EventCtx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:  defaultTracerName,
		IncludeData: false,
		IncludePage: true,
		Filter:      nil,
	}
}

// OpenTelemetry creates middleware that traces every dispatched event.
//
// The middleware:
//   - Creates a span per event with type, target path, and session ID
//   - Replaces the dispatch context with the span context so downstream
//     middleware and database calls inherit the trace
//   - Records errors and sets span status
//   - Records the pushed update size as a span attribute
//
// Example:
//
//	srv := live.New(nil)
//	srv.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	))
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) live.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return func(next live.EventFunc) live.EventFunc {
		return func(ec *live.EventCtx) error {
			// Apply filter if configured
			if config.Filter != nil && !config.Filter(ec) {
				return next(ec)
			}

			// Build span attributes
			attrs := []attribute.KeyValue{
				attribute.String("loom.event", ec.Event),
				attribute.String("loom.target_path", fmt.Sprint(ec.Path)),
			}

			var sentBefore uint64
			if ec.Session != nil {
				attrs = append(attrs, attribute.String("loom.session_id", ec.Session.ID))
				if config.IncludePage {
					attrs = append(attrs, attribute.String("loom.page", ec.Session.Page))
				}
				sentBefore = ec.Session.BytesSent()
			}

			// Add event payload if enabled
			if config.IncludeData && len(ec.Data) > 0 {
				attrs = append(attrs, attribute.String("loom.event_data", fmt.Sprintf("%v", ec.Data)))
			}

			// Add custom attributes
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(ec)...)
			}

			// Start span
			spanCtx, span := config.tracer.Start(
				ec.Context(),
				formatSpanName(ec),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
				trace.WithTimestamp(time.Now()),
			)
			defer span.End()

			// Hand the span context to the rest of the chain
			ec.SetContext(spanCtx)

			// Execute the handler
			err := next(ec)

			// Record result
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}

			// Record how much update data the dispatch pushed
			if ec.Session != nil {
				span.SetAttributes(attribute.Int64("loom.update_bytes", int64(ec.Session.BytesSent()-sentBefore)))
			}

			return err
		}
	}
}

// SpanFromEvent returns the trace span for the current dispatch. When the
// OpenTelemetry middleware is not installed, or skipped the event, the
// returned span is non-recording.
//
// Example:
//
//	srv.Use(func(next live.EventFunc) live.EventFunc {
//	    return func(ec *live.EventCtx) error {
//	        middleware.SpanFromEvent(ec).AddEvent("validating payload")
//	        return next(ec)
//	    }
//	})
func SpanFromEvent(ec *live.EventCtx) trace.Span {
	return trace.SpanFromContext(ec.Context())
}

// formatSpanName creates a span name from the event.
func formatSpanName(ec *live.EventCtx) string {
	if ec.Event == "" {
		return "loom.dispatch"
	}
	return fmt.Sprintf("loom.%s", ec.Event)
}
