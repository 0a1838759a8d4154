package middleware

import (
	"runtime/debug"
	"time"

	"storefront/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestLogger writes one line per request and recovers panics into an
// internal-error envelope.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := requestID(c)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)

		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().
					Str("request_id", reqID).
					Interface("panic", recovered).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				response.Panic(c, recovered)
			}
			logRequest(log, c, start, reqID)
		}()

		c.Next()
	}
}

func logRequest(log zerolog.Logger, c *gin.Context, start time.Time, reqID string) {
	status := c.Writer.Status()
	ev := log.Info()
	switch {
	case status >= 500:
		ev = log.Error()
	case status >= 400:
		ev = log.Warn()
	}
	ev = ev.
		Str("request_id", reqID).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Int64("user_id", c.GetInt64("user_id")).
		Str("role", c.GetString("role"))
	if len(c.Errors) > 0 {
		ev = ev.Str("error", c.Errors.String())
	}
	ev.Msg("request")
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
