package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
)

// Role 表示请求方的角色（数值越大权限越高）。
type Role int

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

// String 返回角色的字符串表示。
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return ctxPkg.RoleAdmin
	case RoleModerator:
		return "moderator"
	case RoleUser:
		fallthrough
	default:
		return "user"
	}
}

const roleKey = "role"

// ParseRole 从字符串解析角色，未知值降级为 user。
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ctxPkg.RoleAdmin:
		return RoleAdmin
	case "moderator":
		return RoleModerator
	default:
		return RoleUser
	}
}

// RoleMiddleware 解析 X-Role 并注入到 gin.Context 和 request.Context。
func RoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := ParseRole(c.GetHeader("X-Role"))
		c.Set(roleKey, r)
		c.Request = c.Request.WithContext(ctxPkg.WithRole(c.Request.Context(), r.String()))
		c.Next()
	}
}

// GetRole 从 gin.Context 获取当前请求角色。
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get(roleKey); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}

	if r := ctxPkg.GetRole(c.Request.Context()); r != "" {
		return ParseRole(r)
	}

	return RoleUser
}

// RequireMinRole 要求最小角色，不满足则返回 403。
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			abort(c, http.StatusForbidden, "forbidden: insufficient role")
			return
		}

		c.Next()
	}
}
