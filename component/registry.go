package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jbousquie/whisperx-api/logger"
)

// stopTimeout bounds each Stop call.
const stopTimeout = 10 * time.Second

// Registry owns the service components. They start in registration order
// and stop in reverse, so a component may rely on everything registered
// before it.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	// started is the length of the prefix of components that started.
	started int
	log     *logger.Logger
}

func NewRegistry() *Registry {
	return &Registry{log: logger.Get("component")}
}

func (r *Registry) indexOf(name string) int {
	return slices.IndexFunc(r.components, func(c Component) bool { return c.Name() == name })
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(c.Name()) >= 0 {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.components = append(r.components, c)
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, c.Name()))
	return nil
}

// StartAll starts the components that are not running yet. On failure the
// components already started stay up until StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ; r.started < len(r.components); r.started++ {
		c := r.components[r.started]
		t0 := time.Now()
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			return fmt.Errorf("failed to start %s: %w", c.Name(), err)
		}
		r.log.Info("component started", logger.Fields(
			logger.FieldComponent, c.Name(),
			logger.FieldDuration, time.Since(t0).Milliseconds(),
		))
	}
	return nil
}

// StopAll stops the started components, last started first, and joins
// their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for ; r.started > 0; r.started-- {
		c := r.components[r.started-1]
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Info("component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll asks every component for its health, in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, len(r.components))
	for i, c := range r.components {
		out[i] = c.Health(ctx)
	}
	return out
}

// Get returns the component called name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(name); i >= 0 {
		return r.components[i]
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.components)
}
