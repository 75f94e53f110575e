/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tracing.go
Description: OpenTelemetry tracer provider for HTTP transaction tracing. Exports over
OTLP/HTTP when enabled; otherwise spans are sampled and ended without an exporter.
*/

package agent

import (
	"context"
	"fmt"

	"github.com/kleascm/agent-demo/pkg/config"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// NewTracerProvider builds the provider for cfg
func NewTracerProvider(ctx context.Context, cfg config.TracingConfig, serviceName, version string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	}

	if cfg.Enabled {
		// WithEndpoint takes host:port; WithInsecure selects plain HTTP.
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}
