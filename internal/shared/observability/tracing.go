package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the shared tracer for scan and query spans. It resolves to a
// no-op tracer until InitTracing installs a provider.
var Tracer trace.Tracer = otel.Tracer("codegraph")

// InitTracing installs an OTLP gRPC trace exporter. endpoint empty means
// tracing stays disabled. The returned shutdown func flushes pending spans.
func InitTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer("codegraph")

	return provider.Shutdown, nil
}
