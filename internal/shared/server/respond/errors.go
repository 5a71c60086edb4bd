package respond

import (
	"github.com/gin-gonic/gin"

	"vetted-backend/internal/shared/telemetry"
)

// FailureResponse is the error body understood by the UI collaborator.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Failure logs the error and aborts with {success:false, error}.
func Failure(c *gin.Context, status int, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if applicantID := c.GetString("applicantId"); applicantID != "" {
		fields["applicant_id"] = applicantID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, FailureResponse{Success: false, Error: message})
}
