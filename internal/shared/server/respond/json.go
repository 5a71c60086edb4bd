package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload as-is with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Success writes {success:true} merged with fields. A "success" key in fields is ignored.
func Success(c *gin.Context, status int, fields gin.H) {
	body := gin.H{}
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	JSON(c, status, body)
}
