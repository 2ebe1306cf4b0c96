package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jbousquie/whisperx-api/component"
)

// HealthChecker reports the health of every component.
type HealthChecker func(ctx context.Context) []component.Health

type readinessBody struct {
	Status     string             `json:"status"`
	Service    string             `json:"service"`
	Components []component.Health `json:"components"`
	Timestamp  string             `json:"timestamp"`
}

// Readiness answers 503 only when a component is unhealthy. A degraded
// service, for example one without diarization, still takes traffic.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := readinessBody{Status: "ready", Service: serviceName, Components: []component.Health{}}
		if checker != nil {
			body.Components = checker(c.Request.Context())
		}
		body.Timestamp = time.Now().UTC().Format(time.RFC3339)

		code := http.StatusOK
		if component.Overall(body.Components) == component.StatusUnhealthy {
			body.Status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	}
}
