package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/configs"
)

// CORSMiddleware CORS中间件，放行身份与角色请求头.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AddAllowHeaders("Authorization", "X-User", "X-Role", "X-Cache-Bypass", "If-None-Match")
	config.ExposeHeaders = []string{"ETag", "X-Cache", "Age"}
	config.MaxAge = 12 * time.Hour

	if cfg.Debug {
		config.MaxAge = 0
	}

	return cors.New(config)
}
