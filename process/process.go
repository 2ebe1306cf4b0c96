// Package process runs ffmpeg and nvidia-smi: one-shot subprocesses whose
// output is captured whole and which die with their context.
package process

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Command is a subprocess invocation. Binary is looked up on PATH when
// it has no slash.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	// Env entries (KEY=value) are added to the inherited environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod separates SIGTERM from SIGKILL on cancellation; 5s when
	// zero.
	GracePeriod time.Duration
}

// Result is what a finished subprocess left behind. ExitCode is -1 when
// it was killed by a signal.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// StderrTail returns the last n bytes of stderr, trimmed. ffmpeg states
// the reason for a failure at the very end of its output.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	tail := r.Stderr[max(0, len(r.Stderr)-n):]
	return strings.TrimSpace(string(tail))
}

// Runner is the signature of Run. Components take a Runner so tests can
// return canned output.
type Runner func(ctx context.Context, cmd Command) (*Result, error)

// Available reports whether binary resolves on PATH.
func Available(binary string) bool {
	path, err := exec.LookPath(binary)
	return err == nil && path != ""
}
