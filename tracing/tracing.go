// Package tracing wires OpenTelemetry spans for tool calls and the upstream
// Twitch and IGDB requests they make.
package tracing

import (
	"context"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span this server starts.
const TracerName = "igdb-mcp-server"

// Environment variables read by ConfigFromEnv
const (
	EnvEnabled     = "OTEL_ENABLED"
	EnvEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvEnvironment = "OTEL_ENVIRONMENT"
	EnvSampleRate  = "OTEL_TRACES_SAMPLER_ARG"
)

// Config holds tracing configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
	OTLPEndpoint   string    // OTLP over HTTP when set, console exporter otherwise
	Console        io.Writer // console exporter output; nil means stderr
	SampleRate     float64
}

// ConfigFromEnv reads the OTEL_* variables. Tracing is on when OTEL_ENABLED
// is "true" or an OTLP endpoint is configured.
func ConfigFromEnv(version string) Config {
	cfg := Config{
		ServiceName:    TracerName,
		ServiceVersion: version,
		Environment:    "development",
		OTLPEndpoint:   os.Getenv(EnvEndpoint),
		SampleRate:     1.0,
	}
	if env := os.Getenv(EnvEnvironment); env != "" {
		cfg.Environment = env
	}
	cfg.Enabled = os.Getenv(EnvEnabled) == "true" || cfg.OTLPEndpoint != ""

	// An unparsable rate keeps sampling everything
	if rate, err := strconv.ParseFloat(os.Getenv(EnvSampleRate), 64); err == nil {
		cfg.SampleRate = rate
	}
	return cfg
}

// Setup installs the global tracer provider and returns its shutdown function.
// When tracing is disabled the returned function does nothing.
func Setup(ctx context.Context, config Config) (func(context.Context) error, error) {
	if !config.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := newResource(config)
	if err != nil {
		return nil, err
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// newResource describes this service on top of the SDK defaults. The semconv
// version must match the one the SDK's default resource is built with, or
// Merge rejects the conflicting schema URLs.
func newResource(config Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironmentName(config.Environment),
		),
	)
}

// newExporter picks OTLP when an endpoint is set. The console exporter never
// writes to stdout, which carries the MCP stdio framing.
func newExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	if config.OTLPEndpoint != "" {
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(config.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	}

	w := config.Console
	if w == nil {
		w = os.Stderr
	}
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
}

func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// StartSpan starts a span on the server's tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// AddToolAttributes tags a tool call span
func AddToolAttributes(span trace.Span, toolName, category string) {
	span.SetAttributes(
		attribute.String("mcp.tool.name", toolName),
		attribute.String("mcp.tool.category", category),
	)
}

// AddUpstreamAttributes tags an upstream HTTP call span. A zero status means
// no response arrived.
func AddUpstreamAttributes(span trace.Span, endpoint, method string, statusCode int) {
	span.SetAttributes(
		attribute.String("igdb.endpoint", endpoint),
		attribute.String("http.request.method", method),
	)
	if statusCode > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	}
}

// Fail records err on the span and marks it failed.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
