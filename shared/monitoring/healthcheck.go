package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request counts and latencies by route template.
func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RegisterRoutes adds /health, /status and /metrics to r.
func (m *Monitor) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", m.healthHandler)
	r.GET("/status", m.statusHandler)
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

func (m *Monitor) healthHandler(c *gin.Context) {
	status := http.StatusOK
	state := "healthy"
	if !m.IsHealthy() {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"summary":   m.GetStatusSummary(),
		"timestamp": time.Now().UTC(),
	})
}

func (m *Monitor) statusHandler(c *gin.Context) {
	c.String(http.StatusOK, m.GetStatusSummary())
}
