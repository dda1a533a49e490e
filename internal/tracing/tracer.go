// Package tracing wraps OpenTelemetry for sync pass instrumentation. Tracing
// is off by default; when enabled spans are exported as JSON to a writer.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of every bodykeeper span.
const TracerName = "github.com/dmitrijs2005/bodykeeper"

// Config holds tracing configuration.
type Config struct {
	Enabled bool
	// Output receives exported spans. Required when Enabled.
	Output io.Writer
}

// Tracer starts spans and owns the provider lifecycle.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// Noop returns a tracer whose spans are discarded.
func Noop() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
}

// New creates a Tracer. A disabled config yields Noop().
func New(cfg Config) (*Tracer, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if cfg.Output == nil {
		return nil, fmt.Errorf("tracing enabled without output")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Output))
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return &Tracer{tracer: provider.Tracer(TracerName), provider: provider}, nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// End closes span, marking it failed when errCount > 0.
func End(span trace.Span, errCount int) {
	span.SetAttributes(attribute.Int("errors", errCount))
	if errCount > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d errors", errCount))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
