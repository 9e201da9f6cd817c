package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
)

// Metrics records request count, latency and errors per route template
func Metrics(m *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := c.Writer.Status()
		status := strconv.Itoa(code)
		method := c.Request.Method

		m.HTTPRequests.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestSeconds.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

		if code >= 400 {
			errorType := "client_error"
			if code >= 500 {
				errorType = "server_error"
			}
			m.HTTPRequestErrors.WithLabelValues(method, path, status, errorType).Inc()
		}
	}
}
