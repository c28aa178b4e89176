package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDMiddleware tags each request with an ID, honoring one supplied
// by the client.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeaderKey, requestID)
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeaderKey)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireCaughtUp refuses derived-data requests until the ledger feed has
// reported catch-up, so callers never see partially replicated views.
func (h *Handler) requireCaughtUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.feed != nil && !h.feed.CaughtUp() {
			c.AbortWithStatusJSON(StatusNotCaughtUp, gin.H{
				"error": "ledger feed is not caught up",
			})
			return
		}
		c.Next()
	}
}
