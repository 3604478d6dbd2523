package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type contextKey struct{}

var requestIDContextKey = contextKey{}

// RequestID assigns every request a unique id, echoes it in the
// response header, and logs start/finish with its duration.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDContextKey, requestID))

		start := time.Now()
		logger := slog.With("request_id", requestID)
		logger.Info("request started", "method", c.Request.Method, "path", c.Request.URL.Path)

		c.Next()

		logger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// GetRequestID returns the request id set by RequestID, or "" if absent.
func GetRequestID(c *gin.Context) string {
	v, _ := c.Request.Context().Value(requestIDContextKey).(string)
	return v
}
