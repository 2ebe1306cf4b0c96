package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newMeterProvider exports metrics over OTLP/HTTP every cfg.Interval.
func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)), nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the service instruments. A nil *Metrics records nothing.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	stageTotal      metric.Int64Counter
	stageDuration   metric.Float64Histogram
	gateWait        metric.Float64Histogram
	gateActive      metric.Int64UpDownCounter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.requestTotal, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests by route and status"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}
	if m.runTotal, err = meter.Int64Counter("pipeline.runs",
		metric.WithDescription("Pipeline runs by result"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.runs counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("pipeline.duration",
		metric.WithDescription("End-to-end pipeline duration, gate wait included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.duration histogram: %w", err)
	}
	if m.stageTotal, err = meter.Int64Counter("pipeline.stage.outcomes",
		metric.WithDescription("Stage outcomes by stage"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.outcomes counter: %w", err)
	}
	if m.stageDuration, err = meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Stage duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}
	if m.gateWait, err = meter.Float64Histogram("gate.wait",
		metric.WithDescription("Time spent waiting for the accelerator"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating gate.wait histogram: %w", err)
	}
	if m.gateActive, err = meter.Int64UpDownCounter("gate.active",
		metric.WithDescription("Runs holding the accelerator"),
	); err != nil {
		return nil, fmt.Errorf("creating gate.active counter: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("errors",
		metric.WithDescription("Errors by code and component"),
	); err != nil {
		return nil, fmt.Errorf("creating errors counter: %w", err)
	}
	return m, nil
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("route", route),
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Int("status", status))...))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRun records a finished pipeline run; result is "ok" or an error code.
func (m *Metrics) RecordRun(ctx context.Context, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.runDuration.Record(ctx, d.Seconds())
}

// RecordStage records one stage outcome.
func (m *Metrics) RecordStage(ctx context.Context, stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordGateWait records how long a run waited and whether it got in.
func (m *Metrics) RecordGateWait(ctx context.Context, d time.Duration, acquired bool) {
	if m == nil {
		return
	}
	m.gateWait.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("acquired", acquired)))
}

// GateHeld tracks runs holding the accelerator; pass +1 on acquire and -1 on release.
func (m *Metrics) GateHeld(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.gateActive.Add(ctx, delta)
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
