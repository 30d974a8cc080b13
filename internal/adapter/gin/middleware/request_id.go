package middleware

import (
	"github.com/gin-gonic/gin"

	"portunus/pkg/logger"
)

// RequestID propagates X-Request-ID, generating one when the client sent none.
// The ID is echoed in the response and attached to the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = logger.NewRequestID()
		}

		c.Header(logger.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
