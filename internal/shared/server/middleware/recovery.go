package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"vetted-backend/internal/shared/server/respond"
	"vetted-backend/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a failure body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				respond.Failure(c, http.StatusInternalServerError, "Unexpected server error")
			}
		}()
		c.Next()
	}
}
