// Package telemetry wires OpenTelemetry tracing. Without a configured
// collector endpoint the global no-op provider stays in place and spans cost
// next to nothing.
// file: internal/telemetry/telemetry.go
package telemetry

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/config"
	"github.com/dkoosis/headlines/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dkoosis/headlines"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Setup installs a global tracer provider exporting over OTLP/HTTP when
// cfg.Endpoint is set. It always returns a usable ShutdownFunc.
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string, logger logging.Logger) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if cfg.Endpoint == "" {
		logger.Debug("Tracing disabled, no collector endpoint configured.")
		return noop, nil
	}

	var opts []otlptracehttp.Option
	if strings.Contains(cfg.Endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noop, errors.Wrap(err, "failed to create OTLP trace exporter")
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "headlines"
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logger.Info("Tracing enabled.", "endpoint", cfg.Endpoint, "serviceName", serviceName)

	return func(ctx context.Context) error {
		return errors.Wrap(tp.Shutdown(ctx), "tracer provider shutdown")
	}, nil
}

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
