package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName = "nexus-etl"
	TracerName  = "nexusetl"
)

// OTelProviders holds the OpenTelemetry providers for the pipeline run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
}

// InitializeOTel sets up tracing for the pipeline. Traces go to stdout in
// development and are disabled entirely when NEXUS_TRACING is unset.
func InitializeOTel(ctx context.Context, version string) (*OTelProviders, error) {
	if os.Getenv("NEXUS_TRACING") == "" {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return &OTelProviders{TracerProvider: tp, Tracer: tp.Tracer(TracerName)}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &OTelProviders{TracerProvider: tp, Tracer: tp.Tracer(TracerName)}, nil
}

// Shutdown flushes and stops the tracer provider
func (p *OTelProviders) Shutdown(ctx context.Context) {
	if p == nil || p.TracerProvider == nil {
		return
	}
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		slog.Warn("failed to shut down tracer provider", slog.String("error", err.Error()))
	}
}
