package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/config"
	"github.com/jbousquie/whisperx-api/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	m.record("start " + m.name)
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.record("stop " + m.name)
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) component.Health {
	h := m.health
	h.Name = m.name
	if h.Status == "" {
		h.Status = component.StatusHealthy
	}
	return h
}

func (m *mockComponent) record(event string) {
	if m.events != nil {
		*m.events = append(*m.events, event)
	}
}

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() component.Description {
	return component.Description{Type: "server", Details: "gin+h2c", Port: 8000}
}

func (d *describedComponent) Routes() []component.Route {
	return []component.Route{{Method: "POST", Path: "/transcribe", Handler: "api.Transcribe"}}
}

func newTestApp(t *testing.T, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "test-svc", Version: "1.0.0"}}
	var summary bytes.Buffer
	opts = append([]Option{
		WithLogger(logger.NewWriter(io.Discard, "test")),
		WithSummaryOutput(&summary),
	}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &summary
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Fatal("expected registry, logger and summary")
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got environment %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("unexpected default graceful timeout %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.NewWriter(io.Discard, "test")))
	if err == nil || !strings.Contains(err.Error(), "config.name is required") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app, _ := newTestApp(t, WithGracefulTimeout(3*time.Second))
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", app.gracefulTimeout)
	}
}

func TestRunLifecycleOrder(t *testing.T) {
	app, summary := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "telemetry", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "models", events: &events})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.OnStart(func(context.Context) error { events = append(events, "onStart"); return nil })
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		events = append(events, "configure "+a.Cfg.Name)
		return nil
	})
	app.OnReady(func(context.Context) error {
		events = append(events, "onReady")
		cancel()
		return nil
	})
	app.OnStop(func(context.Context) error { events = append(events, "onStop"); return nil })

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{
		"start telemetry", "start models", "onStart", "configure test-svc", "onReady",
		"onStop", "stop models", "stop telemetry",
	}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected order:\n got %v\nwant %v", events, want)
	}
	if !strings.Contains(summary.String(), "test-svc v1.0.0 started") {
		t.Errorf("expected summary header, got %q", summary.String())
	}
}

func TestRunStartFailureStopsStartedComponents(t *testing.T) {
	app, _ := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "telemetry", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "models", events: &events, startErr: errors.New("no backend")})

	configured := false
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { configured = true; return nil })

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no backend") {
		t.Fatalf("expected start error, got %v", err)
	}
	if configured {
		t.Error("configure must not run after a failed start")
	}
	want := "start telemetry,start models,stop telemetry"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRunConfigureError(t *testing.T) {
	app, _ := newTestApp(t)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("wiring failed") })
	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "configuration failed") {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestHookErrorStopsExecution(t *testing.T) {
	second := false
	err := runHooks(context.Background(), []Hook{
		func(context.Context) error { return errors.New("boom") },
		func(context.Context) error { second = true; return nil },
	})
	if err == nil || !strings.Contains(err.Error(), "hook 0 failed") {
		t.Errorf("unexpected error %v", err)
	}
	if second {
		t.Error("second hook must not run")
	}
}

func TestShutdownReportsStopError(t *testing.T) {
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "server", stopErr: errors.New("listener stuck")})
	if err := app.Components.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(); err == nil || !strings.Contains(err.Error(), "listener stuck") {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("empty registry should be ready: %v", err)
	}

	_ = app.RegisterComponent(&mockComponent{name: "server"})
	_ = app.RegisterComponent(&mockComponent{
		name:   "models",
		health: component.Health{Status: component.StatusDegraded, Message: "diarization unavailable"},
	})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "models=degraded(diarization unavailable)") {
		t.Errorf("unexpected ready check result %v", err)
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal, got %v", sig)
	}
}

func TestSummaryRender(t *testing.T) {
	registry := component.NewRegistry()
	_ = registry.Register(&describedComponent{mockComponent{name: "http-server"}})
	_ = registry.Register(&mockComponent{
		name:   "models",
		health: component.Health{Status: component.StatusDegraded, Message: "alignment unavailable"},
	})

	s := NewSummary("whisperx-api", "2.0.0")
	s.SetStartupDuration(1500 * time.Millisecond)

	var buf bytes.Buffer
	if err := s.Render(context.Background(), &buf, registry); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"whisperx-api v2.0.0 started in 1.50s",
		"http-server [server] gin+h2c (:8000)",
		"Routes (1)",
		"POST    /transcribe -> api.Transcribe",
		"Health: degraded",
		"models: degraded (alignment unavailable)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryRenderNilRegistry(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSummary("svc", "0.1.0").Render(context.Background(), &buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "none registered") {
		t.Errorf("unexpected summary %q", buf.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if treePrefix(0, 2) != "├──" || treePrefix(1, 2) != "└──" {
		t.Error("unexpected tree prefixes")
	}
}
