package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// App runs a service: it starts the registered components, runs the
// lifecycle hooks, prints a summary and waits for a shutdown signal.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(manager)
//	app.Run(context.Background())
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer

	onConfigure []func(ctx context.Context, app *App[C]) error
	onStart     []Hook
	onReady     []Hook
	onStop      []Hook
}

// NewApp defaults and validates cfg, then sets up logging from its
// logging section unless WithLogger is given.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	s := settings{grace: defaultGracefulTimeout, summaryOut: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}

	base := cfg.GetServiceConfig()
	if s.log == nil {
		logger.Init(base.Logging)
		s.log = logger.GetGlobalLogger()
	}

	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		Logger:          s.log,
		Summary:         NewSummary(base.Name, base.Version),
		gracefulTimeout: s.grace,
		summaryOut:      s.summaryOut,
	}, nil
}

// RegisterComponent adds c to the start order.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers fn to run once components and OnStart hooks are
// done.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck lists the components that are not healthy, as
// "name=status(message)".
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		entry := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			entry += "(" + h.Message + ")"
		}
		bad = append(bad, entry)
	}
	if len(bad) == 0 {
		return nil
	}
	return fmt.Errorf("unhealthy components: %s", strings.Join(bad, ", "))
}

// Run blocks until SIGINT, SIGTERM or ctx is done, then shuts down. A
// startup failure stops whatever had started and is returned.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Warn("cleanup after failed startup", logger.Fields(logger.FieldError, stopErr.Error()))
		}
		return err
	}
	a.WaitForSignal(ctx)
	return a.stop()
}

type phase struct {
	name string
	run  func(ctx context.Context) error
}

func (a *App[C]) startup(ctx context.Context) error {
	t0 := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	phases := []phase{
		{"initialization", a.Components.StartAll},
		{"onStart hook", func(ctx context.Context) error { return runHooks(ctx, a.onStart) }},
		{"configuration", a.configure},
		{"ready check", func(ctx context.Context) error {
			// Degraded components still serve requests.
			if err := a.ReadyCheck(ctx); err != nil {
				a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
			}
			return nil
		}},
		{"onReady hook", func(ctx context.Context) error { return runHooks(ctx, a.onReady) }},
	}
	for _, p := range phases {
		if err := p.run(ctx); err != nil {
			return fmt.Errorf("%s failed: %w", p.name, err)
		}
	}

	a.Summary.SetStartupDuration(time.Since(t0))
	a.DisplaySummary(ctx)
	a.Logger.Info("ready", logger.Fields(logger.FieldDuration, time.Since(t0).Milliseconds()))
	return nil
}

func (a *App[C]) configure(ctx context.Context) error {
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// DisplaySummary writes the startup summary.
func (a *App[C]) DisplaySummary(ctx context.Context) {
	if err := a.Summary.Render(ctx, a.summaryOut, a.Components); err != nil {
		a.Logger.Warn("failed to write startup summary", logger.Fields(logger.FieldError, err.Error()))
	}
}

// WaitForSignal returns the received signal, or nil when ctx ended first.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		a.Logger.Info("shutdown signal received", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context done, shutting down")
		return nil
	}
}

// Shutdown runs the stop hooks and stops the components, for callers that
// do not use Run.
func (a *App[C]) Shutdown() error {
	return a.stop()
}

func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	a.Logger.Info("shutting down", logger.Fields("timeout", a.gracefulTimeout.String()))
	hookErr := runHooks(ctx, a.onStop)
	stopErr := a.Components.StopAll(ctx)
	if err := errors.Join(hookErr, stopErr); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}
