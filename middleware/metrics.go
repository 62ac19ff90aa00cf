package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"order-desk/metrics"
)

// Metrics records request count, latency and in-flight requests. Routes are
// labelled by their pattern so ids do not blow up label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.RequestInFlight.Inc()
		defer metrics.RequestInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
