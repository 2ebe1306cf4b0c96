package resilience

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBulkheadFull is returned when no slot is free and waiting is off.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when MaxWait elapsed without a slot.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadEvent is reported to BulkheadConfig.OnEvent.
type BulkheadEvent int

const (
	EventAcquired BulkheadEvent = iota
	EventRejected
	EventReleased
)

func (e BulkheadEvent) String() string {
	switch e {
	case EventAcquired:
		return "acquired"
	case EventRejected:
		return "rejected"
	case EventReleased:
		return "released"
	}
	return "unknown"
}

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	Name string
	// Capacity is the number of concurrent holders. Zero means 1.
	Capacity int
	// MaxWait bounds the wait for a slot: zero fails at once, negative
	// waits until the context is done.
	MaxWait time.Duration
	OnEvent func(name string, e BulkheadEvent)
}

// Bulkhead is a counting semaphore. Waiters park on a channel send, so
// the runtime serves them roughly in arrival order.
type Bulkhead struct {
	cfg   BulkheadConfig
	slots chan struct{}
}

// NewBulkhead creates a bulkhead with every slot free.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	return &Bulkhead{cfg: cfg, slots: make(chan struct{}, cfg.Capacity)}
}

func (b *Bulkhead) notify(e BulkheadEvent) {
	if b.cfg.OnEvent != nil {
		b.cfg.OnEvent(b.cfg.Name, e)
	}
}

// Acquire takes a slot. Pair every successful call with one Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	err := b.wait(ctx)
	if err != nil {
		b.notify(EventRejected)
		return err
	}
	b.notify(EventAcquired)
	return nil
}

func (b *Bulkhead) wait(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	switch {
	case b.cfg.MaxWait == 0:
		return ErrBulkheadFull
	case b.cfg.MaxWait > 0:
		t := time.NewTimer(b.cfg.MaxWait)
		defer t.Stop()
		expired = t.C
	}

	select {
	case b.slots <- struct{}{}:
		return nil
	case <-expired:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. Releasing an idle bulkhead does nothing.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
		b.notify(EventReleased)
	default:
	}
}

// Capacity is the configured number of slots.
func (b *Bulkhead) Capacity() int { return b.cfg.Capacity }
