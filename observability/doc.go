// Package observability wires OpenTelemetry tracing and metrics for the
// service.
//
// Telemetry is a component: when enabled it installs OTLP/HTTP trace and
// metric exporters as the global providers on Start and flushes them on
// Stop. When disabled the global no-op providers stay in place and every
// span or instrument call is free.
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
//	defer span.End()
//
//	metrics, _ := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordStage(ctx, "align", "applied", time.Second)
package observability
