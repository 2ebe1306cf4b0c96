package component

import "context"

// HealthStatus is healthy, degraded or unhealthy.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is one component's answer to a health check.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is anything the Registry starts and stops: the models manager,
// the HTTP server, telemetry exporters. Name must be unique.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary, such as
// "models [models] device=cuda whisper=large-v2". An empty Name falls back
// to Component.Name and a zero Port is not shown.
type Description struct {
	Name    string
	Type    string
	Details string
	Port    int
}

// Describable components appear in the startup summary.
type Describable interface {
	Describe() Description
}

// Route is an HTTP route listed in the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider components list their routes in the startup summary.
type RouteProvider interface {
	Routes() []Route
}

// Overall is the worst status in healths; an empty set is healthy.
func Overall(healths []Health) HealthStatus {
	worst := StatusHealthy
	for _, h := range healths {
		if h.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if h.Status == StatusDegraded {
			worst = StatusDegraded
		}
	}
	return worst
}
