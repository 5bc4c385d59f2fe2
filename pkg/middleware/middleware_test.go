package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	"github.com/yeisme/avatarhub/pkg/internal/storage/kv"
	"github.com/yeisme/avatarhub/pkg/metrics"
	"github.com/yeisme/avatarhub/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(configs.AuthConfig{
		Enabled:       true,
		DevAllowQuery: true,
		SkipPaths:     []string{"/open"},
	}))

	echo := func(c *gin.Context) {
		c.String(http.StatusOK, ctxPkg.GetUser(c.Request.Context())+"|"+middleware.GetUser(c))
	}
	r.GET("/items", echo)
	r.POST("/items", echo)
	r.POST("/open", echo)

	w := do(r, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "|", w.Body.String())

	w = do(r, http.MethodPost, "/items", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)

	w = do(r, http.MethodPost, "/items", map[string]string{"X-User": "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice|alice", w.Body.String())

	w = do(r, http.MethodPost, "/items", map[string]string{"X-Forwarded-Email": "bob@example.com"})
	require.Equal(t, "bob@example.com|bob@example.com", w.Body.String())

	w = do(r, http.MethodPost, "/items?user=carol", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "carol|carol", w.Body.String())

	w = do(r, http.MethodPost, "/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(configs.AuthConfig{Enabled: false}))
	r.POST("/items", func(c *gin.Context) { c.String(http.StatusOK, middleware.GetUser(c)) })

	w := do(r, http.MethodPost, "/items?user=carol", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
}

func TestRoleMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RoleMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRole(c).String())
	})
	r.GET("/admin", middleware.RequireMinRole(middleware.RoleAdmin), func(c *gin.Context) {
		require.True(t, ctxPkg.IsAdmin(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	require.Equal(t, "user", do(r, http.MethodGet, "/whoami", nil).Body.String())
	require.Equal(t, "user", do(r, http.MethodGet, "/whoami", map[string]string{"X-Role": "root"}).Body.String())
	require.Equal(t, "admin", do(r, http.MethodGet, "/whoami", map[string]string{"X-Role": " Admin "}).Body.String())

	require.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", map[string]string{"X-Role": "moderator"}).Code)
	require.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", map[string]string{"X-Role": "admin"}).Code)
}

func TestRateLimitByUser(t *testing.T) {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(configs.AuthConfig{}))
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2, Key: "user"}))
	r.POST("/vote", func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := map[string]string{"X-User": "alice"}
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/vote", alice).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/vote", alice).Code)
	require.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/vote", alice).Code)

	// 不同用户独立计数
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/vote", map[string]string{"X-User": "bob"}).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: false}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 5 {
		require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", nil).Code)
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CircuitBreakerMiddleware("test", configs.CircuitBreakerConfig{
		Enabled:          true,
		FailureRate:      0.5,
		MinRequests:      2,
		Interval:         time.Minute,
		OpenTimeout:      time.Minute,
		HalfOpenRequests: 1,
	}))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	require.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/boom", nil).Code)
	require.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/boom", nil).Code)

	w := do(r, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "temporarily unavailable")
}

func newResponseCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return cache.NewCache(store)
}

func TestCacheMiddlewareServesHits(t *testing.T) {
	var (
		calls atomic.Int32
		gen   atomic.Int32
	)

	cfg := middleware.DefaultCacheConfig(newResponseCache(t))
	cfg.VaryHeaders = []string{"X-User"}
	cfg.Generation = func(*gin.Context) string { return string(rune('a' + gen.Load())) }

	r := gin.New()
	r.GET("/items/:id", middleware.CacheMiddleware(cfg), func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "user": c.GetHeader("X-User")})
	})

	alice := map[string]string{"X-User": "alice"}
	first := do(r, http.MethodGet, "/items/av_1", alice)
	require.Equal(t, http.StatusOK, first.Code)

	// 写缓存是异步的
	require.Eventually(t, func() bool {
		return do(r, http.MethodGet, "/items/av_1", alice).Header().Get("X-Cache") == "HIT"
	}, 2*time.Second, 10*time.Millisecond)

	hit := do(r, http.MethodGet, "/items/av_1", alice)
	require.Equal(t, first.Body.String(), hit.Body.String())
	require.True(t, strings.HasPrefix(hit.Header().Get("Content-Type"), "application/json"))
	require.NotEmpty(t, hit.Header().Get("ETag"))
	require.Positive(t, testutil.ToFloat64(metrics.ResponseCacheTotal.WithLabelValues("/items/:id", "hit")))

	before := calls.Load()

	// 不同路径参数、不同用户都不共享条目
	require.Contains(t, do(r, http.MethodGet, "/items/av_2", alice).Body.String(), "av_2")
	require.Contains(t, do(r, http.MethodGet, "/items/av_1", map[string]string{"X-User": "bob"}).Body.String(), "bob")
	require.Equal(t, before+2, calls.Load())

	// 条件请求
	notModified := do(r, http.MethodGet, "/items/av_1", map[string]string{"X-User": "alice", "If-None-Match": hit.Header().Get("ETag")})
	require.Equal(t, http.StatusNotModified, notModified.Code)

	// 绕过头
	do(r, http.MethodGet, "/items/av_1", map[string]string{"X-User": "alice", "X-Cache-Bypass": "1"})
	require.Equal(t, before+3, calls.Load())

	// 代号变化后重新回源
	gen.Add(1)
	require.NotEqual(t, "HIT", do(r, http.MethodGet, "/items/av_1", alice).Header().Get("X-Cache"))
	require.Equal(t, before+4, calls.Load())
}

func TestCacheMiddlewareSkipsErrorsAndNoStore(t *testing.T) {
	var calls atomic.Int32

	r := gin.New()
	r.Use(middleware.CacheMiddleware(middleware.DefaultCacheConfig(newResponseCache(t))))
	r.GET("/missing", func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusNotFound)
	})
	r.GET("/private", func(c *gin.Context) {
		calls.Add(1)
		c.Header("Cache-Control", "no-store")
		c.String(http.StatusOK, "secret")
	})

	for range 3 {
		do(r, http.MethodGet, "/missing", nil)
		do(r, http.MethodGet, "/private", nil)
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, int32(6), calls.Load())
}

func TestDefaultCacheKeyIsStable(t *testing.T) {
	key := func(target string, vary ...string) string {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		c.Request.Header.Set("X-User", "u1")
		c.Request.Header.Set("X-Role", "admin")

		return middleware.DefaultCacheKey(c, vary)
	}

	require.Equal(t, key("/items?a=1&b=2"), key("/items?b=2&a=1"))
	require.NotEqual(t, key("/items?a=1"), key("/items?a=2"))
	require.Equal(t, key("/items", "X-User", "X-Role"), key("/items", "X-Role", "X-User"))
	require.True(t, strings.HasPrefix(key("/items"), "rc."))
}
