package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "requestId"
	maxRequestIDLen = 128
)

// requestIDHeaders are checked in order; the AWS trace id links API
// Gateway logs with ours when the client sent no id.
var requestIDHeaders = []string{"X-Request-Id", "X-Amzn-Trace-Id"}

// RequestID attaches a request ID to context and response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingRequestID(c)
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

func incomingRequestID(c *gin.Context) string {
	for _, h := range requestIDHeaders {
		id := strings.TrimSpace(c.GetHeader(h))
		if id != "" && len(id) <= maxRequestIDLen && !strings.ContainsAny(id, "\r\n") {
			return id
		}
	}
	return uuid.NewString()
}

// RequestIDFromContext fetches the request ID stored by RequestID middleware.
func RequestIDFromContext(c *gin.Context) string {
	return contextString(c, requestIDKey)
}
