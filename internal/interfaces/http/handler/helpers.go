package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pathUUID parses a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ValidationFailed(c, name, "Invalid UUID format")
		return uuid.Nil, false
	}
	return id, true
}

// queryDuration parses a duration query parameter such as "168h",
// falling back to def when absent
func (h *BaseHandler) queryDuration(c *gin.Context, name string, def time.Duration) (time.Duration, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		h.ValidationFailed(c, name, "Must be a positive duration such as 24h")
		return 0, false
	}
	return d, true
}

// queryUUID parses an optional UUID query parameter
func (h *BaseHandler) queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.ValidationFailed(c, name, "Invalid UUID format")
		return nil, false
	}
	return &id, true
}
