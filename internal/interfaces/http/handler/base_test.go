package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/interfaces/http/dto"
	"github.com/handmade/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(t *testing.T, target string, fn gin.HandlerFunc) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/items/:id", fn)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewNotFoundError("no record"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"conflict", shared.ErrConflict, http.StatusConflict, dto.ErrCodeConflict},
		{"wrapped validation", errors.Join(errors.New("ctx"), shared.NewValidationError("bad")), http.StatusBadRequest, dto.ErrCodeValidation},
		{"invalid state", shared.NewDomainError(shared.CodeInvalidState, "cancelled"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"plain error is internal", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := run(t, "/items/1", func(c *gin.Context) { h.HandleError(c, tt.err) })
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}

	t.Run("internal message is not leaked", func(t *testing.T) {
		_, resp := run(t, "/items/1", func(c *gin.Context) { h.HandleError(c, errors.New("pq: password authentication failed")) })
		assert.NotContains(t, resp.Error.Message, "password")
	})

	t.Run("shortage lines are returned as details", func(t *testing.T) {
		err := inventory.NewInsufficientStockError([]inventory.ShortageLine{
			{OrderItemID: uuid.New(), ProductID: uuid.New(), Requested: 4, Available: 1},
			{OrderItemID: uuid.New(), ProductID: uuid.New(), Requested: 2, Available: 0},
		})
		w, resp := run(t, "/items/1", func(c *gin.Context) { h.HandleError(c, err) })
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lines, ok := resp.Error.Details.([]any)
		require.True(t, ok)
		assert.Len(t, lines, 2)
	})
}

func TestBaseHandler_PathUUID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	w, resp := run(t, "/items/"+id.String(), func(c *gin.Context) {
		got, ok := h.pathUUID(c, "id")
		require.True(t, ok)
		h.Success(c, got)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), resp.Data)

	w, resp = run(t, "/items/abc", func(c *gin.Context) {
		_, ok := h.pathUUID(c, "id")
		assert.False(t, ok)
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "id", resp.Error.Fields[0].Field)
}

func TestBaseHandler_QueryDuration(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		query  string
		want   time.Duration
		wantOK bool
	}{
		{"", time.Hour, true},
		{"?window=168h", 168 * time.Hour, true},
		{"?window=soon", 0, false},
		{"?window=-1h", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var (
				got time.Duration
				ok  bool
			)
			run(t, "/items/1"+tt.query, func(c *gin.Context) {
				got, ok = h.queryDuration(c, "window", time.Hour)
			})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseHandler_Actor(t *testing.T) {
	h := &BaseHandler{}

	w, _ := run(t, "/items/1", func(c *gin.Context) {
		_, ok := h.actor(c)
		assert.False(t, ok)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	run(t, "/items/1", func(c *gin.Context) {
		c.Set(middleware.ActorIDKey, "maker-7")
		actor, ok := h.actor(c)
		assert.True(t, ok)
		assert.Equal(t, "maker-7", actor)
	})
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewSystemHandler("inventory", "1.0.0", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		w, resp := run(t, "/items/1", h.Health)
		assert.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "1.0.0", data["version"])
	})

	t.Run("failing dependency degrades", func(t *testing.T) {
		h := NewSystemHandler("inventory", "1.0.0", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		w, resp := run(t, "/items/1", h.Health)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "degraded", data["status"])
		deps := data["dependencies"].(map[string]any)
		assert.Equal(t, "ok", deps["database"])
		assert.Equal(t, "dial tcp: refused", deps["redis"])
	})
}
