// Command whisperx-api serves speech-to-text transcription with optional
// word alignment and speaker diarization over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jbousquie/whisperx-api/accelerator"
	"github.com/jbousquie/whisperx-api/api"
	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/bootstrap"
	"github.com/jbousquie/whisperx-api/config"
	"github.com/jbousquie/whisperx-api/gate"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/models"
	"github.com/jbousquie/whisperx-api/observability"
	"github.com/jbousquie/whisperx-api/pipeline"
	"github.com/jbousquie/whisperx-api/server"
	"github.com/jbousquie/whisperx-api/version"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml (searched when empty)")
	envFile := flag.String("env", "", "path to a .env file (searched when empty)")
	flag.Parse()

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := wire(app); err != nil {
		app.Logger.Fatal("wiring failed", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := app.Run(context.Background()); err != nil {
		app.Logger.Fatal("service stopped with error", logger.Fields(logger.FieldError, err.Error()))
	}
}

// wire builds the components and routes. Components start in the order
// they are registered: telemetry first so model loading is traced, the
// HTTP server last so it only accepts requests once models are loaded.
func wire(app *bootstrap.App[*Config]) error {
	cfg := app.Cfg

	telemetry := observability.NewTelemetry(cfg.Telemetry, cfg.Name, cfg.Version, cfg.Environment)
	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		app.Logger.Warn("metrics disabled", logger.Fields(logger.FieldError, err.Error()))
		metrics = nil
	}

	manager := models.NewManager(cfg.Models, models.DefaultRegistries(), accelerator.NewNvidiaSMI(nil))
	g := gate.New(cfg.Gate)
	orchestrator := pipeline.New(cfg.Pipeline, manager, g, metrics)
	loader := audio.NewFFmpegLoader(cfg.Audio, nil)

	srv := server.New(cfg.Server, logger.Get("http"), metrics)
	handler := api.NewHandler(cfg.API, cfg.Server.MaxBodyBytes(), loader, orchestrator, manager, g)
	handler.Register(srv.GinEngine())
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll)

	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := app.RegisterComponent(manager); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	app.OnStop(func(ctx context.Context) error {
		stats := g.Stats()
		app.Logger.Info("gate totals", logger.Fields(
			"acquired", stats.Acquired,
			"rejected", stats.Rejected,
			"max_observed", stats.MaxObserved,
		))
		return nil
	})
	return nil
}
