package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/posts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/posts/:id", "GET", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts/123", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("/api/posts/:id", "GET", "204"))
	assert.Equal(t, before+1, after)
}

func TestObserveLikeToggle(t *testing.T) {
	before := testutil.ToFloat64(likeToggles.WithLabelValues("comment", "unliked"))
	ObserveLikeToggle("comment", false)
	assert.Equal(t, before+1, testutil.ToFloat64(likeToggles.WithLabelValues("comment", "unliked")))
}

func TestHandlerExposesCounters(t *testing.T) {
	ObserveLikeToggle("post", true)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), "blog_like_toggles_total"))
}
