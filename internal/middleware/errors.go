package middleware

import (
	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	if requestID := c.GetString(ContextRequestID); requestID != "" {
		body["request_id"] = requestID
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
