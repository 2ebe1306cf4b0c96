// Command whisperx-monitor shows host load, GPU memory, the API health
// report and the running server processes of a transcription host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/monitor"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
)

func fail(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[error] "+colorReset+msg+"\n", a...)
}

func main() {
	var (
		port       int
		interval   int
		continuous bool
		asJSON     bool
		baseURL    string
		verbose    bool
	)
	flag.IntVar(&port, "port", 8000, "API port on localhost")
	flag.IntVar(&port, "p", 8000, "alias for --port")
	flag.IntVar(&interval, "interval", 5, "refresh interval in seconds (continuous mode)")
	flag.IntVar(&interval, "i", 5, "alias for --interval")
	flag.BoolVar(&continuous, "continuous", false, "refresh until interrupted")
	flag.BoolVar(&continuous, "c", false, "alias for --continuous")
	flag.BoolVar(&asJSON, "json", false, "print JSON instead of the dashboard")
	flag.StringVar(&baseURL, "url", "", "API base URL (overrides --port)")
	flag.BoolVar(&verbose, "v", false, "log collection failures to stderr")
	flag.Parse()

	if interval <= 0 {
		fail("--interval must be positive")
		os.Exit(2)
	}

	level := "error"
	if verbose {
		level = "debug"
	}
	logger.Init(logger.Config{Level: level, Format: logger.FormatConsole, Output: "stderr", ServiceName: "whisperx-monitor"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(monitor.Config{
		Port:     port,
		BaseURL:  baseURL,
		Interval: time.Duration(interval) * time.Second,
	}, nil, nil)

	dash := monitor.Dashboard{Clear: continuous, Interval: m.Config().Interval}
	emit := func(iteration int, snap *monitor.Snapshot) error {
		if asJSON {
			return monitor.WriteJSON(os.Stdout, snap)
		}
		return dash.Render(os.Stdout, iteration, snap)
	}

	if err := m.Run(ctx, continuous, emit); err != nil {
		fail("%v", err)
		os.Exit(1)
	}
}
