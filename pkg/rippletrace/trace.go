// Package rippletrace exports runtime activity as OpenTelemetry spans.
//
// Hook events arrive after the work they describe, so spans are
// reconstructed: a computation that ran for d ends now and started at
// now-d. Spans are roots, parented to context.Background().
package rippletrace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// Default tracer name for ripple applications.
const defaultTracerName = "ripple"

// Config configures the OpenTelemetry runtime hook.
type Config struct {
	// TracerName is the name of the tracer (default: "ripple").
	TracerName string

	// Filter determines which nodes to trace.
	// Return true to trace the node, false to skip.
	// If nil, all nodes are traced. Error spans ignore the filter.
	Filter func(info ripple.NodeInfo) bool

	// MinDuration drops computation and batch spans shorter than this.
	// Fine-grained graphs evaluate in microseconds; raising the floor
	// keeps exporters from drowning. Default: 0 (trace everything).
	MinDuration time.Duration
}

// Option configures the OpenTelemetry runtime hook.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithNodeFilter sets a filter function for nodes.
func WithNodeFilter(filter func(info ripple.NodeInfo) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

// WithMinDuration sets the minimum duration for computation and batch
// spans.
func WithMinDuration(d time.Duration) Option {
	return func(c *Config) {
		c.MinDuration = d
	}
}

// defaultConfig returns the default tracing configuration.
func defaultConfig() Config {
	return Config{
		TracerName:  defaultTracerName,
		Filter:      nil,
		MinDuration: 0,
	}
}

// Tracer is a runtime hook that emits a span per computation
// evaluation, per batch commit, and per routed error.
type Tracer struct {
	ripple.BaseHook

	config Config
	tracer trace.Tracer
}

var _ ripple.Hook = (*Tracer)(nil)

// New creates a Tracer hook. Attach it with ripple.AddHook or Install.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before building graphs:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
//
//	remove := ripple.AddHook(rippletrace.New(
//	    rippletrace.WithMinDuration(100*time.Microsecond),
//	))
//	defer remove()
func New(opts ...Option) *Tracer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Tracer{
		BaseHook: ripple.NewBaseHook("otel"),
		config:   config,
		tracer:   otel.Tracer(config.TracerName),
	}
}

// Install creates a Tracer hook and attaches it to the runtime.
// The returned function detaches the hook again.
func Install(opts ...Option) (*Tracer, func()) {
	t := New(opts...)
	return t, ripple.AddHook(t)
}

// ComputationRan implements ripple.Hook.
func (t *Tracer) ComputationRan(info ripple.NodeInfo, d time.Duration) {
	if d < t.config.MinDuration {
		return
	}
	if t.config.Filter != nil && !t.config.Filter(info) {
		return
	}

	end := time.Now()
	_, span := t.tracer.Start(
		context.Background(),
		spanName(info),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(nodeAttributes(info)...),
		trace.WithTimestamp(end.Add(-d)),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))
}

// BatchCommitted implements ripple.Hook.
func (t *Tracer) BatchCommitted(staged int, d time.Duration) {
	if d < t.config.MinDuration {
		return
	}

	end := time.Now()
	_, span := t.tracer.Start(
		context.Background(),
		"ripple.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("ripple.staged_writes", staged)),
		trace.WithTimestamp(end.Add(-d)),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))
}

// ErrorRouted implements ripple.Hook. Error spans are zero-length
// markers carrying the error; they bypass Filter and MinDuration.
func (t *Tracer) ErrorRouted(info ripple.NodeInfo, err error, handled bool) {
	now := time.Now()
	attrs := append(nodeAttributes(info), attribute.Bool("ripple.handled", handled))
	_, span := t.tracer.Start(
		context.Background(),
		spanName(info),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(now),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End(trace.WithTimestamp(now))
}

// spanName formats a span name from node identity.
func spanName(info ripple.NodeInfo) string {
	kind := string(info.Kind)
	if kind == "" {
		kind = "node"
	}
	if info.Name != "" {
		return fmt.Sprintf("ripple.%s %s", kind, info.Name)
	}
	return fmt.Sprintf("ripple.%s #%d", kind, info.ID)
}

// nodeAttributes builds the span attributes shared by all node spans.
func nodeAttributes(info ripple.NodeInfo) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int64("ripple.node_id", int64(info.ID)),
		attribute.String("ripple.node_kind", string(info.Kind)),
	}
	if info.Name != "" {
		attrs = append(attrs, attribute.String("ripple.node_name", info.Name))
	}
	return attrs
}
