// Package monitor collects a point-in-time view of a transcription host:
// system load, GPUs, the API's own health report and the server processes.
// cmd/whisperx-monitor renders it as a dashboard or as JSON.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jbousquie/whisperx-api/accelerator"
	"github.com/jbousquie/whisperx-api/logger"
)

// Config configures a Monitor.
type Config struct {
	// Port is the local API port. BaseURL overrides it when set.
	Port    int
	BaseURL string
	// Interval between refreshes in continuous mode.
	Interval time.Duration
	// ProcessMatch selects server processes by name or command line.
	ProcessMatch string
	// RequestTimeout bounds each API call.
	RequestTimeout time.Duration
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.ProcessMatch == "" {
		c.ProcessMatch = "whisperx-api"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}
}

// Host reads operating system statistics. GopsutilHost implements it.
type Host interface {
	System(ctx context.Context) (SystemInfo, error)
	Processes(ctx context.Context, match string) ([]ProcessInfo, error)
}

// Snapshot is one collection pass.
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	System    SystemInfo        `json:"system"`
	GPUs      []accelerator.GPU `json:"gpus"`
	GPUError  string            `json:"gpu_error,omitempty"`
	Health    APIResult         `json:"api_health"`
	Models    APIResult         `json:"api_models"`
	Processes []ProcessInfo     `json:"processes"`
	Errors    []string          `json:"errors,omitempty"`
}

// Monitor gathers snapshots.
type Monitor struct {
	cfg    Config
	host   Host
	gpus   accelerator.Prober
	client *Client
	log    *logger.Logger
}

// New creates a Monitor. A nil host uses gopsutil and a nil prober runs
// nvidia-smi.
func New(cfg Config, host Host, gpus accelerator.Prober) *Monitor {
	cfg.ApplyDefaults()
	if host == nil {
		host = GopsutilHost{}
	}
	if gpus == nil {
		gpus = accelerator.NewNvidiaSMI(nil)
	}
	return &Monitor{
		cfg:    cfg,
		host:   host,
		gpus:   gpus,
		client: NewClient(cfg.BaseURL, cfg.RequestTimeout),
		log:    logger.Get("monitor"),
	}
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

// Collect gathers every section concurrently. Section failures are recorded
// in the snapshot and never abort the collection.
func (m *Monitor) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{Timestamp: time.Now()}
	var mu sync.Mutex
	fail := func(section string, err error) {
		mu.Lock()
		snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", section, err))
		mu.Unlock()
		m.log.Debug("collection failed", logger.Fields("section", section, logger.FieldError, err.Error()))
	}

	// Sections report their own failures, so no goroutine returns an error
	// and one slow section cannot cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		sys, err := m.host.System(ctx)
		if err != nil {
			fail("system", err)
		}
		snap.System = sys
		return nil
	})
	g.Go(func() error {
		gpus, err := m.gpus.GPUs(ctx)
		if err != nil {
			snap.GPUError = err.Error()
			return nil
		}
		snap.GPUs = gpus
		return nil
	})
	g.Go(func() error {
		snap.Health = m.client.Health(ctx)
		return nil
	})
	g.Go(func() error {
		snap.Models = m.client.ModelsInfo(ctx)
		return nil
	})
	g.Go(func() error {
		procs, err := m.host.Processes(ctx, m.cfg.ProcessMatch)
		if err != nil {
			fail("processes", err)
		}
		snap.Processes = procs
		return nil
	})
	_ = g.Wait()
	return snap
}

// Run collects and emits snapshots. With continuous false it emits one
// snapshot and returns; otherwise it repeats every Interval until ctx ends.
func (m *Monitor) Run(ctx context.Context, continuous bool, emit func(iteration int, snap *Snapshot) error) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for iteration := 1; ; iteration++ {
		if err := emit(iteration, m.Collect(ctx)); err != nil {
			return err
		}
		if !continuous || ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
