// Package tracing wraps CBM operations in OpenTelemetry spans, with an
// optional OTLP gRPC exporter for deployments that run a collector.
// Callers (cmd/armctl, interfaces/http) open spans around their calls into
// pkg/cbm; pkg/cbm itself stays free of tracing imports, matching the
// teacher's pattern of keeping observability at the edges of the domain
// layer rather than inside it.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func resourceFor(serviceName string) *resource.Resource {
	return resource.NewSchemaless(attribute.String("service.name", serviceName))
}

// Tracer name used for every span this module emits.
const tracerName = "github.com/fabric-testbed/InformationModel-sub001"

// Setup configures the global TracerProvider with an OTLP gRPC exporter
// targeting endpoint. Returns a shutdown func the caller should defer.
func Setup(ctx context.Context, endpoint, serviceName string) (func(context.Context) error, error) {
	client := otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resourceFor(serviceName)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Start begins a span named op under the module's tracer. If no
// TracerProvider has been configured via Setup, otel's default no-op
// provider makes this a cheap, safe call.
func Start(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, op)
}
