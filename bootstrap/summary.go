package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jbousquie/whisperx-api/component"
)

// Summary renders the startup summary: the components that describe
// themselves, the routes of route providers and a live health check.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a summary for a service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Render writes the summary for the components of registry to w.
func (s *Summary) Render(ctx context.Context, w io.Writer, registry *component.Registry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var (
		described []component.Description
		routes    []component.Route
	)
	if registry != nil {
		for _, c := range registry.All() {
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				if desc.Name == "" {
					desc.Name = c.Name()
				}
				described = append(described, desc)
			}
			if rp, ok := c.(component.RouteProvider); ok {
				routes = append(routes, rp.Routes()...)
			}
		}
	}

	b.WriteString("\nComponents\n")
	if len(described) == 0 {
		b.WriteString("   └── none registered\n")
	}
	for i, d := range described {
		details := d.Details
		if d.Port > 0 {
			details = fmt.Sprintf("%s (:%d)", details, d.Port)
		}
		fmt.Fprintf(&b, "   %s %s [%s] %s\n", treePrefix(i, len(described)), d.Name, d.Type, details)
	}

	if len(routes) > 0 {
		fmt.Fprintf(&b, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(&b, "   %s %-7s %s -> %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	if registry != nil {
		healths := registry.HealthAll(ctx)
		if len(healths) > 0 {
			fmt.Fprintf(&b, "\nHealth: %s\n", component.Overall(healths))
			for i, h := range healths {
				msg := ""
				if h.Message != "" {
					msg = " (" + h.Message + ")"
				}
				fmt.Fprintf(&b, "   %s %s %s: %s%s\n", treePrefix(i, len(healths)), healthIcon(h.Status), h.Name, h.Status, msg)
			}
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
