// Package telemetry turns fit diagnostics into structured logs and
// OpenTelemetry spans.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the instrumentation scope of every span.
	TracerName = "github.com/ByLCY/autofit"
	// ServiceName is reported as service.name.
	ServiceName = "autofit"
)

// Config holds tracing configuration.
type Config struct {
	Enabled bool
	Output  io.Writer // defaults to os.Stderr
	Pretty  bool
	Version string
}

// Tracer wraps an OpenTelemetry tracer. A disabled Tracer is a no-op.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// New creates a tracer exporting to cfg.Output through the stdout exporter.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return NewWithProvider(provider), nil
}

// NewWithProvider wraps an existing SDK provider, mostly for tests.
func NewWithProvider(provider *sdktrace.TracerProvider) *Tracer {
	return &Tracer{
		tracer:   provider.Tracer(TracerName),
		provider: provider,
	}
}

// Enabled reports whether spans are exported anywhere.
func (t *Tracer) Enabled() bool { return t != nil && t.provider != nil }

// Start starts a span on the underlying tracer.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// RenderSpan covers one parse-layout-render pass.
type RenderSpan struct {
	span trace.Span
}

// StartRender starts a span for rendering one document.
func (t *Tracer) StartRender(ctx context.Context, document, format string) (context.Context, *RenderSpan) {
	ctx, span := t.tracer.Start(ctx, "document.render",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("document.name", document),
			attribute.String("render.format", format),
		),
	)
	return ctx, &RenderSpan{span: span}
}

// SetFrames records the frame count and how many of them overflow.
func (rs *RenderSpan) SetFrames(total, overflowing int) {
	rs.span.SetAttributes(
		attribute.Int("document.frames", total),
		attribute.Int("document.frames.overflowing", overflowing),
	)
}

// SetBytes records the size of the rendered output.
func (rs *RenderSpan) SetBytes(n int) {
	rs.span.SetAttributes(attribute.Int("render.bytes", n))
}

// End ends the span, marking it failed when err is not nil.
func (rs *RenderSpan) End(err error) {
	if err != nil {
		rs.span.RecordError(err)
		rs.span.SetStatus(codes.Error, err.Error())
	}
	rs.span.End()
}
