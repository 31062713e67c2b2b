// Package telemetry wires OpenTelemetry tracing for warden. Trimmed
// from the teacher's observability package to tracing only (no RED
// metrics): the domain stack spec calls for request tracing across
// the ingestion/evaluation suspension points, not a metrics pipeline.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the tracer provider. An empty OTLPEndpoint leaves
// telemetry a no-op: Provider.Tracer still returns a usable (global,
// unexported-no-op) tracer, so instrumented code never needs a nil
// check.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	Insecure       bool
}

// Provider owns the tracer provider lifecycle.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	logger         *slog.Logger
}

// New initializes tracing. If cfg.OTLPEndpoint is empty, returns a
// Provider backed by the global no-op tracer and does no network
// setup — this is the default for local development and tests.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{logger: logger.With("component", "telemetry")}

	if cfg.OTLPEndpoint == "" {
		p.logger.InfoContext(ctx, "tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		p.tracer = otel.Tracer("warden")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	p.tracer = otel.Tracer("warden", trace.WithInstrumentationVersion(cfg.ServiceVersion))

	p.logger.InfoContext(ctx, "tracing initialized", "endpoint", cfg.OTLPEndpoint)
	return p, nil
}

// Tracer returns the configured tracer (or the global no-op tracer if
// telemetry is disabled).
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.Tracer("warden")
	}
	return p.tracer
}

// StartSpan is a thin convenience wrapper over Tracer().Start.
func (p *Provider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.Tracer().Start(ctx, name, opts...)
}

// Shutdown flushes and stops the tracer provider, if one was created.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	return nil
}
