package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
)

// 身份请求头，按优先级排列. oauth2-proxy 注入后两者.
var identityHeaders = []string{"X-User", "X-Auth-Request-Email", "X-Forwarded-Email"}

const userKey = "user"

// AuthMiddleware 从请求头识别调用者并写入 request context.
//   - 总是尝试识别身份，GET 请求据此返回 voted 标记
//   - 启用时，非只读请求必须带身份，否则 401
//   - skip_paths 前缀下的路径不做要求
//   - dev_allow_query 允许用 ?user= 在本地调试.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := identify(c, conf.DevAllowQuery)
		if user != "" {
			c.Set(userKey, user)
			c.Request = c.Request.WithContext(ctxPkg.WithUser(c.Request.Context(), user))
		}

		if user == "" && conf.Enabled && !isReadOnly(c.Request.Method) &&
			!isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		c.Next()
	}
}

// GetUser 返回已识别的调用者，没有时为空.
func GetUser(c *gin.Context) string {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(string); ok {
			return u
		}
	}

	return ctxPkg.GetUser(c.Request.Context())
}

func identify(c *gin.Context, allowQuery bool) string {
	for _, h := range identityHeaders {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}

	if allowQuery {
		return strings.TrimSpace(c.Query("user"))
	}

	return ""
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
