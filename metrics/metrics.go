// Package metrics exposes RED metrics for the HTTP API plus a counter for
// like toggles.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "status"})

	likeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_like_toggles_total",
		Help: "Like toggles by target type and resulting state.",
	}, []string{"target", "state"})
)

// Middleware records duration and count per route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpDuration.WithLabelValues(path, c.Request.Method, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(path, c.Request.Method, status).Inc()
	}
}

func ObserveLikeToggle(target string, liked bool) {
	state := "unliked"
	if liked {
		state = "liked"
	}
	likeToggles.WithLabelValues(target, state).Inc()
}

func Handler() http.Handler { return promhttp.Handler() }
