package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

// RequestLogger logs one line per request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := log.With(
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", status),
			logger.Duration("duration", time.Since(start)),
			logger.Int("size", c.Writer.Size()),
		)
		if caller := CallerFrom(c); caller != nil {
			entry = entry.With(logger.Stringer("user_id", caller.UserID))
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}
