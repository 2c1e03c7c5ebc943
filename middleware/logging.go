package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"heritage-api/apperr"
	"heritage-api/logger"
)

// Logging logs basic request information with request ID.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Info("request",
			zap.String("id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", c.ClientIP()),
		)
	}
}

// Recovery logs panics and returns 500 with a generic message.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.L().Error("panic recovered",
					zap.String("id", GetRequestID(c)),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				RespondError(c, apperr.Internal(nil, "Internal server error"))
			}
		}()
		c.Next()
	}
}
