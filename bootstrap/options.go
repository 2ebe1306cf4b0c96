package bootstrap

import (
	"io"
	"time"

	"github.com/jbousquie/whisperx-api/logger"
)

// Option adjusts an App in NewApp.
type Option func(*settings)

type settings struct {
	log        *logger.Logger
	grace      time.Duration
	summaryOut io.Writer
}

// WithLogger uses l and leaves the global logger alone.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout bounds the shutdown. The default is 15s.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.grace = d }
}

// WithSummaryOutput sends the startup summary to w instead of stdout.
func WithSummaryOutput(w io.Writer) Option {
	return func(s *settings) { s.summaryOut = w }
}
