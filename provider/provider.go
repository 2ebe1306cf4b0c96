package provider

import (
	"context"
	"time"
)

// Provider is a model backend for one stage.
type Provider interface {
	Name() string
	// IsAvailable reports whether the backend can serve a request now.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a backend from the options block of its stage config.
type Factory[T Provider] func(cfg map[string]any) (T, error)

// String reads key from cfg. Empty strings count as unset.
func String(cfg map[string]any, key, fallback string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Duration reads a duration from a factory config map. Strings such as
// "90s" are parsed; anything unparseable yields the fallback.
func Duration(cfg map[string]any, key string, fallback time.Duration) time.Duration {
	switch v := cfg[key].(type) {
	case time.Duration:
		if v > 0 {
			return v
		}
	case string:
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Int reads key from cfg. YAML and JSON numbers both decode.
func Int(cfg map[string]any, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
