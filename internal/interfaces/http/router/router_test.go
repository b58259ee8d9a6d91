package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	assert.Equal(t, "/api/v2", NewRouter(gin.New(), WithAPIVersion("v2")).BasePath())
	assert.Equal(t, "/admin", NewRouter(gin.New(), WithBasePath("/admin")).BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithBasePath("/admin"))
	r.Use(func(c *gin.Context) {
		c.Header("X-Group", "admin")
		c.Next()
	})

	g := NewDomainGroup("test", "/test")
	g.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(g).Setup()

	w := serve(engine, http.MethodGet, "/admin/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "admin", w.Header().Get("X-Group"))

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("panel", "")
		assert.Equal(t, "panel", g.Name())
		assert.Equal(t, "", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g := NewDomainGroup("test", "/test").
			GET("/items", ok).
			POST("/items", ok).
			PUT("/items/:id", ok).
			DELETE("/items/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/api/v1/test/items"},
			{http.MethodPost, "/api/v1/test/items"},
			{http.MethodPut, "/api/v1/test/items/1"},
			{http.MethodDelete, "/api/v1/test/items/1"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.method, w.Body.String())
		}
	})

	t.Run("group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "applied", serve(engine, http.MethodGet, "/api/v1/test/items").Header().Get("X-Test-Middleware"))
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("procurement", "/procurement")
		g.Group("rfqs", "/rfqs").GET("", func(c *gin.Context) { c.String(http.StatusOK, "rfqs") })
		g.Group("leases", "/leases").GET("", func(c *gin.Context) { c.String(http.StatusOK, "leases") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "rfqs", serve(engine, http.MethodGet, "/api/v1/procurement/rfqs").Body.String())
		assert.Equal(t, "leases", serve(engine, http.MethodGet, "/api/v1/procurement/leases").Body.String())
	})
}
