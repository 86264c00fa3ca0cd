package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/observability"
)

// Metrics instruments requests with counts, latency, and an in-flight
// gauge. With metrics disabled it collapses to a pass-through. The gauge
// decrement is deferred so handler panics cannot leak in-flight slots.
// Health probes are exempt: load balancers hit them every few seconds
// and would drown the real traffic series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/healthcheck" {
			c.Next()
			return
		}
		if route == "" {
			// Unmatched paths share one label so 404 scans cannot blow up
			// series cardinality.
			route = "unknown"
		}

		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
