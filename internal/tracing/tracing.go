// Package tracing sets up the OpenTelemetry tracer used around pipeline stages and
// object store calls.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/sanchitvj/sparkify-lake/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ServiceName = "sparkify-etl"

var Module = fx.Module("tracing", fx.Provide(NewTracer))

// NewTracer returns a tracer exporting over OTLP/gRPC when tracing is enabled and a
// no-op tracer otherwise. The provider is flushed and shut down on fx stop.
func NewTracer(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (trace.Tracer, error) {
	if !cfg.Tracing.Enabled {
		return noop.NewTracerProvider().Tracer(ServiceName), nil
	}

	tp, err := NewProvider(cfg.Tracing.Endpoint, cfg.Environment, cfg.Version)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down tracer provider")
			return tp.Shutdown(ctx)
		},
	})

	logger.Info("tracing initialized", zap.String("endpoint", cfg.Tracing.Endpoint))
	return tp.Tracer(ServiceName), nil
}

// NewProvider builds a batching tracer provider for the OTLP collector at endpoint.
func NewProvider(endpoint, environment, version string) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}
