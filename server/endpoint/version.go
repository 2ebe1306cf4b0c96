package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jbousquie/whisperx-api/version"
)

var bootedAt = time.Now()

type versionBody struct {
	Service string       `json:"service"`
	Build   version.Info `json:"build"`
	Uptime  string       `json:"uptime"`
}

// Version serves the build info of the binary and how long it has run.
func Version(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, versionBody{
			Service: serviceName,
			Build:   version.Get(),
			Uptime:  time.Since(bootedAt).Truncate(time.Second).String(),
		})
	}
}
