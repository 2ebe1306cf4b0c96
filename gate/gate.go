// Package gate serializes pipeline runs onto the single accelerator.
//
// A Gate is a bulkhead of capacity one. Callers block in arrival order until
// the current holder releases its Token, or until the queue timeout expires.
package gate

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/resilience"
)

const defaultQueueTimeout = 5 * time.Minute

// Config configures the admission gate.
type Config struct {
	// QueueTimeout bounds how long a request waits for the accelerator.
	// Negative waits for as long as the request context allows.
	QueueTimeout time.Duration `mapstructure:"queue_timeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.QueueTimeout == 0 {
		c.QueueTimeout = defaultQueueTimeout
	}
}

// Stats is a point-in-time view of the gate counters.
type Stats struct {
	Active      int64 `json:"active"`
	Waiting     int64 `json:"waiting"`
	MaxObserved int64 `json:"max_observed"`
	Acquired    int64 `json:"acquired"`
	Rejected    int64 `json:"rejected"`
}

// Gate grants exclusive accelerator access.
type Gate struct {
	cfg Config
	bh  *resilience.Bulkhead
	log *logger.Logger

	active      atomic.Int64
	waiting     atomic.Int64
	maxObserved atomic.Int64
	acquired    atomic.Int64
	rejected    atomic.Int64
}

// New creates a gate.
func New(cfg Config) *Gate {
	cfg.ApplyDefaults()
	g := &Gate{cfg: cfg, log: logger.Get("gate")}
	g.bh = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:     "accelerator",
		Capacity: 1,
		MaxWait:  cfg.QueueTimeout,
		OnEvent: func(_ string, e resilience.BulkheadEvent) {
			switch e {
			case resilience.EventAcquired:
				g.acquired.Add(1)
			case resilience.EventRejected:
				g.rejected.Add(1)
			}
		},
	})
	return g
}

// Token is proof of exclusive access. Release it exactly once; further
// calls are no-ops.
type Token struct {
	id     string
	waited time.Duration
	gate   *Gate
	once   sync.Once
}

// ID identifies the holder in logs.
func (t *Token) ID() string { return t.id }

// Waited is how long the holder queued before acquiring.
func (t *Token) Waited() time.Duration { return t.waited }

// Release gives the accelerator back.
func (t *Token) Release() {
	t.once.Do(func() {
		t.gate.active.Add(-1)
		t.gate.bh.Release()
		t.gate.log.Debug("gate released", logger.Fields("token", t.id))
	})
}

// Acquire blocks until the caller holds the accelerator.
// A queue timeout yields a retryable ACCELERATOR_BUSY error and a done
// context yields TIMEOUT.
func (g *Gate) Acquire(ctx context.Context) (*Token, error) {
	start := time.Now()
	g.waiting.Add(1)
	err := g.bh.Acquire(ctx)
	g.waiting.Add(-1)
	waited := time.Since(start)

	if err != nil {
		g.log.Warn("gate acquire rejected", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldDuration, waited.Milliseconds(),
		))
		if stderrors.Is(err, resilience.ErrBulkheadTimeout) {
			return nil, errors.GateTimeout(waited)
		}
		return nil, errors.Timeout("gate.acquire").WithCause(err)
	}

	n := g.active.Add(1)
	for {
		cur := g.maxObserved.Load()
		if n <= cur || g.maxObserved.CompareAndSwap(cur, n) {
			break
		}
	}

	tok := &Token{id: uuid.NewString(), waited: waited, gate: g}
	g.log.Debug("gate acquired", logger.Fields("token", tok.id, "waited_ms", waited.Milliseconds()))
	return tok, nil
}

// Do runs fn while holding the gate. The token is released on every exit
// path, including a panic in fn.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tok, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer tok.Release()
	return fn(ctx)
}

// Stats returns the current counters.
func (g *Gate) Stats() Stats {
	return Stats{
		Active:      g.active.Load(),
		Waiting:     g.waiting.Load(),
		MaxObserved: g.maxObserved.Load(),
		Acquired:    g.acquired.Load(),
		Rejected:    g.rejected.Load(),
	}
}

// QueueTimeout returns the configured wait bound.
func (g *Gate) QueueTimeout() time.Duration { return g.cfg.QueueTimeout }
