package respond

import (
	"github.com/gin-gonic/gin"

	"docdash-backend/internal/shared/telemetry"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error logs the failure and aborts with a flat error body. The cause is logged only.
func Error(c *gin.Context, status int, message string, cause error) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if workspaceID := c.GetString("workspaceId"); workspaceID != "" {
		fields["workspace_id"] = workspaceID
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
