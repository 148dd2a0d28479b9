package middleware

import (
	"strconv"
	"time"

	"github.com/Baaaki/pet-adoption/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request count and latency per route template.
// Unmatched paths share one label so scanners cannot blow up cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
