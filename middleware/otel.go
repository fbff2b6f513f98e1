package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/ghsearch-mcp"

// Attribute keys recorded on spans and metrics.
const (
	AttrMethod    = attribute.Key("rpc.method")
	AttrTool      = attribute.Key("ghsearch.tool")
	AttrErrorCode = attribute.Key("rpc.jsonrpc.error_code")
	AttrRequestID = attribute.Key("ghsearch.request_id")
)

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	version        string
	skipMethods    map[string]bool
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service name recorded on every span.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelVersion sets the instrumentation version.
func WithOTelVersion(version string) OTelOption {
	return func(c *otelConfig) {
		c.version = version
	}
}

// WithOTelSkipMethods specifies methods that are not traced.
func WithOTelSkipMethods(methods ...string) OTelOption {
	return func(c *otelConfig) {
		for _, m := range methods {
			c.skipMethods[m] = true
		}
	}
}

// OTel returns middleware that traces each request and records request
// count, latency and error count. Tool invocations get a span named after
// the tool, other methods a span named after the method.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "ghsearch-mcp",
		version:        "dev",
		skipMethods:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(
		instrumentationName,
		trace.WithInstrumentationVersion(cfg.version),
	)
	meter := cfg.meterProvider.Meter(
		instrumentationName,
		metric.WithInstrumentationVersion(cfg.version),
	)

	requestCounter, _ := meter.Int64Counter(
		"ghsearch.server.requests",
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := meter.Float64Histogram(
		"ghsearch.server.request.duration",
		metric.WithDescription("Duration of requests"),
		metric.WithUnit("ms"),
	)
	errorCounter, _ := meter.Int64Counter(
		"ghsearch.server.errors",
		metric.WithDescription("Total number of failed requests"),
		metric.WithUnit("{error}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skipMethods[req.Method] {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				AttrMethod.String(req.Method),
				attribute.String("service.name", cfg.serviceName),
			}
			spanName := req.Method
			if tool := ToolName(req); tool != "" {
				attrs = append(attrs, AttrTool.String(tool))
				spanName = req.Method + " " + tool
			}

			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if reqID := RequestIDFromContext(ctx); reqID != "" {
				span.SetAttributes(AttrRequestID.String(reqID))
			}

			requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

			start := time.Now()
			resp, err := next(ctx, req)
			requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())

				if rpcErr, ok := protocol.AsError(err); ok {
					span.SetAttributes(AttrErrorCode.Int(rpcErr.Code))
					errorCounter.Add(ctx, 1, metric.WithAttributes(append(attrs, AttrErrorCode.Int(rpcErr.Code))...))
				} else {
					errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
				}
			case resp != nil && resp.Error != nil:
				span.SetStatus(codes.Error, resp.Error.Message)
				span.SetAttributes(AttrErrorCode.Int(resp.Error.Code))
				errorCounter.Add(ctx, 1, metric.WithAttributes(append(attrs, AttrErrorCode.Int(resp.Error.Code))...))
			default:
				span.SetStatus(codes.Ok, "")
			}

			return resp, err
		}
	}
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
