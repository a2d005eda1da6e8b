package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDContextKey = "request_id"
	requestIDHeaderKey  = "X-Request-ID"
)

// RequestIDMiddleware tags each request with an id, reusing a well-formed one
// supplied by the caller, and echoes it in the response headers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeaderKey)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDContextKey, id)
		c.Header(requestIDHeaderKey, id)
		c.Next()
	}
}
