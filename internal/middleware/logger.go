package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/pkg/logger"
)

const HeaderXRequestID = "X-Request-ID"

// Logger tags every request with an id, propagating the caller's
// X-Request-ID when present, and logs one line per request with route,
// status and latency.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(HeaderXRequestID, rid)

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []interface{}{
			"request_id", rid,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			log.Warn("request failed", append(fields, "errors", c.Errors.String())...)
			return
		}
		log.Info("request", fields...)
	}
}
