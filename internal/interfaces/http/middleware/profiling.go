package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are route patterns served without labels, such as health checks
	SkipPaths []string
}

// Profiling attaches the route pattern and method as Pyroscope labels, so
// CPU and allocation samples can be broken down per endpoint
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || slices.Contains(cfg.SkipPaths, route) {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelMethod: c.Request.Method,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
