package middleware

import (
	"net/http"
	"time"

	"github.com/jbousquie/whisperx-api/logger"
)

// quietPaths are polled by probes and the monitor.
var quietPaths = map[string]bool{
	"/health":      true,
	"/alive":       true,
	"/ready":       true,
	"/models/info": true,
}

// RequestLogger writes one access log line per request. Quiet paths are
// only logged when they answer 5xx.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			status := sw.code()
			if status < http.StatusInternalServerError && quietPaths[r.URL.Path] {
				return
			}
			emit := levelFor(log.WithContext(r.Context()), status)
			emit("Request completed", logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				logger.FieldDuration, time.Since(start).Milliseconds(),
				"bytes", sw.written,
			))
		})
	}
}

func levelFor(log *logger.Logger, status int) func(string, ...map[string]interface{}) {
	if status >= http.StatusInternalServerError {
		return log.Error
	}
	if status >= http.StatusBadRequest {
		return log.Warn
	}
	return log.Info
}
