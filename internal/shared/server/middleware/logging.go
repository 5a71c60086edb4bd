package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vetted-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":   RequestIDFromContext(c),
			"method":       c.Request.Method,
			"path":         c.Request.URL.Path,
			"status":       c.Writer.Status(),
			"duration_ms":  float64(latency.Microseconds()) / 1000.0,
			"applicant_id": c.GetString("applicantId"),
			"stream":       c.GetBool("stream"),
			"client_ip":    c.ClientIP(),
			"user_agent":   c.Request.UserAgent(),
		})
	}
}
