// Package tracing provides OpenTelemetry span export for pipeline runs.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "tracing"

// NewTracerProvider builds a TracerProvider from the tracing configuration.
//
// When no collector endpoint is configured, a no-op provider is returned and
// spans cost nothing. Otherwise spans are exported over OTLP/HTTP in batches.
// The returned shutdown function flushes pending spans and must be called
// before the process exits.
func NewTracerProvider(ctx context.Context, cfg config.TracingConfig, serviceName string) (trace.TracerProvider, func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		logger.Debugf("Tracing: no collector endpoint configured, spans disabled.")
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, exception.New(moduleName, "failed to create OTLP trace exporter", err, false)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, nil, exception.New(moduleName, "failed to build trace resource", err, false)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	logger.Infof("Tracing: exporting spans to %s.", cfg.Endpoint)

	return provider, provider.Shutdown, nil
}
