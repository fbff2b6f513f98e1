// Package telemetry configures OpenTelemetry tracing for the process.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options configures Setup.
type Options struct {
	// Endpoint is an OTLP/HTTP endpoint, either a full URL or host:port.
	// Tracing is disabled when it is empty.
	Endpoint       string
	ServiceName    string
	ServiceVersion string

	// Exporter replaces the OTLP exporter, mainly for tests.
	Exporter sdktrace.SpanExporter
}

// Provider holds the configured tracer provider and its shutdown hook.
type Provider struct {
	TracerProvider trace.TracerProvider
	shutdown       func(context.Context) error
}

// Shutdown flushes pending spans. It is safe to call on a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	_, ok := p.TracerProvider.(*sdktrace.TracerProvider)
	return ok
}

// Setup initialises tracing. When tracing is disabled it returns a no-op
// provider and leaves the global provider untouched; otherwise the new
// provider is also installed globally.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	disabled := &Provider{
		TracerProvider: noop.NewTracerProvider(),
		shutdown:       func(context.Context) error { return nil },
	}

	exporter := opts.Exporter
	if exporter == nil {
		if opts.Endpoint == "" {
			return disabled, nil
		}
		var err error
		exporter, err = otlptracehttp.New(ctx, endpointOption(opts.Endpoint))
		if err != nil {
			return disabled, fmt.Errorf("create trace exporter: %w", err)
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return disabled, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
}

func endpointOption(endpoint string) otlptracehttp.Option {
	if strings.Contains(endpoint, "://") {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}
