// Package endpoint holds the probe and build-info handlers.
package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type livenessBody struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Liveness always answers 200 while the process can serve HTTP. It does
// not look at model health; /ready does.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, livenessBody{
			Status:    "alive",
			Service:   serviceName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
