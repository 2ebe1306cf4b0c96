package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the scope of the service's tracer and meter.
const InstrumentationName = "github.com/jbousquie/whisperx-api"

// Span names. Stage spans append the stage name to SpanPipelineStage.
const (
	SpanHTTPRequest   = "http.request"
	SpanPipelineRun   = "pipeline.run"
	SpanPipelineStage = "pipeline.stage."
	SpanGateAcquire   = "gate.acquire"
)

// Span attribute keys.
const (
	AttrRequestID    = "request.id"
	AttrStage        = "pipeline.stage"
	AttrOutcome      = "pipeline.outcome"
	AttrReason       = "pipeline.reason"
	AttrLanguage     = "audio.language"
	AttrAudioSeconds = "audio.seconds"
	AttrDiarization  = "pipeline.diarization"
	AttrSegments     = "transcript.segments"
	AttrDurationMs   = "duration_ms"
	AttrStatus       = "status"
	AttrErrorMessage = "error.message"
)

// newTracerProvider batches spans to the OTLP/HTTP collector at
// cfg.Endpoint.
func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	), nil
}

// sampler keeps everything at 1, nothing at 0, and follows the parent
// decision with a ratio in between.
func sampler(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// newResource identifies the service on every span and metric. Schemaless
// attributes merge with the SDK default without a schema URL conflict.
func newResource(service, version, environment string) (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(service),
		semconv.ServiceVersion(version),
		attribute.String("environment", environment),
	))
}

// StartSpan starts a span on the global provider. It is a no-op span
// while telemetry is disabled.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, opts...)
}

// SetSpanError records err on the current span. A nil err is ignored.
func SetSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
}
