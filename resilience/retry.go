package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	apperrors "github.com/jbousquie/whisperx-api/errors"
)

// Backoff computes exponentially growing delays capped at Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	// Jitter spreads each delay by up to ±Jitter of its value (0..1).
	Jitter float64
}

// Delay returns the wait before retry number attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Factor, float64(attempt-1))
	if b.Jitter > 0 {
		d += d * b.Jitter * (2*rand.Float64() - 1)
	}
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	if d <= 0 {
		d = float64(b.Initial)
	}
	return time.Duration(d)
}

// Policy bounds how an operation is retried.
type Policy struct {
	// Attempts counts the first call. Zero means 3.
	Attempts int
	Backoff  Backoff
	// RetryIf reports whether err is worth another attempt. Nil means
	// ShouldRetry.
	RetryIf func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy is three attempts starting at 100ms.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff:  Backoff{Initial: 100 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: 0.1},
		RetryIf:  ShouldRetry,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Backoff.Initial <= 0 {
		p.Backoff.Initial = d.Backoff.Initial
	}
	if p.Backoff.Max <= 0 {
		p.Backoff.Max = d.Backoff.Max
	}
	if p.Backoff.Factor <= 0 {
		p.Backoff.Factor = d.Backoff.Factor
	}
	if p.RetryIf == nil {
		p.RetryIf = ShouldRetry
	}
	return p
}

// ShouldRetry stops on context errors and on application errors not
// marked retryable. Everything else is retried.
func ShouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

// Do calls fn until it succeeds, the policy gives up or ctx is done. It
// returns the last error from fn, or ctx.Err() when ctx ended the wait.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Attempts || !p.RetryIf(err) {
			return zero, err
		}

		wait := p.Backoff.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}
