package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", ok("pong"))
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = serve(engine, http.MethodGet, "/test/ping")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("inventory", "/inventory")
		assert.Equal(t, "inventory", g.Name())
		assert.Equal(t, "/inventory", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", ok("get")).
			POST("/items", ok("post")).
			PATCH("/items/:id", ok("patch")).
			DELETE("/items/:id", ok("delete"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			body   string
		}{
			{http.MethodGet, "/api/v1/test/items", "get"},
			{http.MethodPost, "/api/v1/test/items", "post"},
			{http.MethodPatch, "/api/v1/test/items/1", "patch"},
			{http.MethodDelete, "/api/v1/test/items/1", "delete"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.body, w.Body.String())
		}
	})

	t.Run("middleware reaches subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.Group("items", "/items").GET("", ok("items"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(gin.New())

	inv := NewDomainGroup("inventory", "/inventory")
	inv.Handle(http.MethodGet, "", "List stock records", ok("list"))
	inv.Group("record", "/:product_id").
		GET("", ok("get")).
		POST("/movements", ok("move"))
	stats := NewDomainGroup("stats", "/inventory-stats")
	stats.GET("/low-stock", ok("low"))
	r.Register(inv, stats)

	routes := r.Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, RouteInfo{Method: http.MethodGet, Path: "/api/v1/inventory", Description: "List stock records"}, routes[0])
	assert.Equal(t, "/api/v1/inventory-stats/low-stock", routes[1].Path)
	assert.Equal(t, "/api/v1/inventory/:product_id", routes[2].Path)
	assert.Equal(t, "/api/v1/inventory/:product_id/movements", routes[3].Path)
}
