package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records one handled request; satisfied by the prometheus
// metrics implementation.
type HTTPObserver interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

// Metrics records per-route request counts and latency.  Unmatched routes
// are grouped under "unmatched" to keep label cardinality bounded.
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
