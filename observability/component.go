package observability

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/logger"
)

// Telemetry is the component owning the trace and meter providers.
type Telemetry struct {
	cfg         Config
	service     string
	version     string
	environment string

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// NewTelemetry creates the telemetry component.
func NewTelemetry(cfg Config, service, version, environment string) *Telemetry {
	cfg.ApplyDefaults()
	return &Telemetry{cfg: cfg, service: service, version: version, environment: environment}
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start installs the exporters when telemetry is enabled.
func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		logger.Get("telemetry").Debug("telemetry disabled")
		return nil
	}
	res, err := newResource(t.service, t.version, t.environment)
	if err != nil {
		return fmt.Errorf("resource: %w", err)
	}
	tp, err := newTracerProvider(ctx, t.cfg, res)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	mp, err := newMeterProvider(ctx, t.cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("meter: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger.Get("telemetry").Info("telemetry exporting", logger.Fields(
		"endpoint", t.cfg.Endpoint,
		"sample_rate", t.cfg.SampleRate,
		"interval", t.cfg.Interval.String(),
	))
	t.tp, t.mp = tp, mp
	return nil
}

// Stop flushes and shuts down the providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	t.tp, t.mp = nil, nil
	return stderrors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(ctx context.Context) component.Health {
	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	if !t.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
