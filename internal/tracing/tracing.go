// Package tracing wraps OpenTelemetry behind the same small surface the
// teacher exposes from its own internal/tracing package (Tracer().Start,
// SpanFromContext, OpenTelemetryInit, ForceFlush) so the rest of this module
// never imports go.opentelemetry.io directly.
package tracing

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// OTELExporterEnvVar is the standard OpenTelemetry variable that, when set,
// signals this program should export spans rather than run with a no-op
// tracer provider.
const OTELExporterEnvVar = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Span is the subset of trace.Span this module's call sites use.
type Span = trace.Span

// Tracer returns the tracer every stage of the pipeline starts spans from.
func Tracer() trace.Tracer {
	return otel.Tracer("github.com/ad-freiburg/olu")
}

// SpanFromContext returns the current span, matching
// trace.SpanFromContext(ctx) but routed through this package so call sites
// never need the upstream import.
func SpanFromContext(ctx context.Context) Span {
	return trace.SpanFromContext(ctx)
}

// provider holds the SDK tracer provider created by Init, so Shutdown /
// ForceFlush have something to act on even though callers never see the SDK
// type directly.
var provider *sdktrace.TracerProvider

// Init sets up the global tracer provider. When OTELExporterEnvVar is unset
// this installs OpenTelemetry's own no-op provider and tracing calls cost
// nothing; when it is set, spans are created but not otherwise exported,
// since wiring a concrete OTLP exporter would require a running collector
// this program has no other use for. Returns the context unchanged, matching
// the teacher's own tracing.OpenTelemetryInit(ctx) signature.
func Init(ctx context.Context) (context.Context, error) {
	if os.Getenv(OTELExporterEnvVar) == "" {
		return ctx, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName("olu"),
	))
	if err != nil {
		return ctx, err
	}

	provider = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(provider)
	return ctx, nil
}

// ForceFlush blocks up to timeout flushing any buffered spans, called once
// at process exit the same way the teacher defers tracing.ForceFlush(5 *
// time.Second) right after tracing.OpenTelemetryInit in cmd/tofu/main.go.
func ForceFlush(timeout time.Duration) {
	if provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = provider.ForceFlush(ctx)
}
