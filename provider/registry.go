package provider

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry maps backend names to factories. "Whisper" and "whisper" name
// the same backend.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{factories: map[string]Factory[T]{}}
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func (r *Registry[T]) lookup(name string) (Factory[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[key(name)]
	return f, ok
}

// RegisterFactory binds name to factory. A later call for the same name wins.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	r.mu.Lock()
	r.factories[key(name)] = factory
	r.mu.Unlock()
}

func (r *Registry[T]) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Create runs the factory registered under name with cfg.
func (r *Registry[T]) Create(name string, cfg map[string]any) (T, error) {
	factory, ok := r.lookup(name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown backend %q (registered: %s)", name, strings.Join(r.List(), ", "))
	}
	return factory(cfg)
}

// List returns the registered names in sorted order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
