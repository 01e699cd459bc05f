package middleware

import (
	"net/http"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling(t *testing.T) {
	labelsSeen := func(cfg ProfilingConfig) map[string]string {
		seen := map[string]string{}
		router := gin.New()
		router.Use(Profiling(cfg))
		handler := func(c *gin.Context) {
			pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
				seen[key] = value
				return true
			})
			c.Status(http.StatusOK)
		}
		router.GET("/api/v1/inventory/:product_id", handler)
		router.GET("/api/v1/health", handler)
		serve(router, http.MethodGet, "/api/v1/inventory/p-1", nil)
		serve(router, http.MethodGet, "/api/v1/health", nil)
		return seen
	}

	t.Run("labels route pattern and method", func(t *testing.T) {
		seen := labelsSeen(ProfilingConfig{Enabled: true, SkipPaths: []string{"/api/v1/health"}})
		assert.Equal(t, map[string]string{
			"route":  "/api/v1/inventory/:product_id",
			"method": "GET",
		}, seen)
	})

	t.Run("disabled adds nothing", func(t *testing.T) {
		assert.Empty(t, labelsSeen(ProfilingConfig{Enabled: false}))
	})
}
