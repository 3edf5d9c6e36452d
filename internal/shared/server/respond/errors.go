package respond

import (
	"github.com/gin-gonic/gin"

	"docbot-backend/internal/shared/telemetry"
)

// Error logs the failure and aborts with {"error": message} merged with details.
func Error(c *gin.Context, status int, message string, details map[string]any) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if documentID := c.GetString("documentId"); documentID != "" {
		fields["document_id"] = documentID
	}
	telemetry.Error("http.error", fields)

	body := gin.H{}
	for k, v := range details {
		body[k] = v
	}
	body["error"] = message
	c.AbortWithStatusJSON(status, body)
}
