package server

import (
	"github.com/gin-gonic/gin"
)

// errorResponse is the error envelope shared by all endpoints.
type errorResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Metadata any    `json:"metadata,omitempty"`
}

func writeError(c *gin.Context, status int, message, details string) {
	c.JSON(status, errorResponse{Error: message, Details: details})
}

func abortWithError(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message, Details: details})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
