package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	defaultGrace = 5 * time.Second
	// errTailBytes is how much stderr is quoted in a failure message.
	errTailBytes = 512
)

var _ Runner = Run

// Run starts cmd and waits for it. When ctx ends the whole process group
// gets SIGTERM, then SIGKILL once GracePeriod has passed. The Result is
// returned even on failure so callers can inspect stderr.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}

	var stdout, stderr bytes.Buffer
	c := build(ctx, cmd)
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	runErr := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if runErr == nil {
		return res, nil
	}
	return res, describe(ctx, cmd.Binary, res, runErr)
}

func build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	// ffmpeg may fork helpers; signal the group rather than the leader.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.GracePeriod
	if c.WaitDelay <= 0 {
		c.WaitDelay = defaultGrace
	}
	return c
}

func describe(ctx context.Context, binary string, res *Result, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("process: %s killed by context: %w", binary, ctx.Err())
	}
	msg := fmt.Sprintf("process: %s exit code %d", binary, res.ExitCode)
	if tail := res.StderrTail(errTailBytes); tail != "" {
		return fmt.Errorf("%s: %w: %s", msg, err, tail)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
