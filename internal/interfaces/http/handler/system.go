package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/interfaces/http/dto"
)

// healthCheckTimeout bounds each dependency check
const healthCheckTimeout = 2 * time.Second

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a new SystemHandler. checks are run on every
// health request, keyed by dependency name.
func NewSystemHandler(name, version string, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// HealthResponse reports the service and dependency status
type HealthResponse struct {
	Status       string            `json:"status"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	GoVersion    string            `json:"go_version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Health handles GET /health. It answers 503 when any dependency fails.
//
// @ID           getHealth
// @Summary      Service and dependency health
// @Description  Answers 503 when any dependency check fails.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				resp.Dependencies[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
