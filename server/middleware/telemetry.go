package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/observability"
)

// Telemetry returns a gin middleware that opens a server span per request
// and records request count and latency by route template. It runs inside
// the router so the matched route is known; unmatched requests are recorded
// under "unmatched". metrics may be nil.
func Telemetry(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPRequest,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String(observability.AttrRequestID, logger.RequestIDFromContext(c.Request.Context())),
			))
		c.Request = c.Request.WithContext(ctx)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if len(c.Errors) > 0 {
			observability.SetSpanError(ctx, c.Errors.Last().Err)
		}
		span.End()
		metrics.RecordRequest(ctx, c.Request.Method, route, status, time.Since(start))
	}
}
