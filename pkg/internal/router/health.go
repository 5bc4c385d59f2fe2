package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup, h *handle.Handler) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("", h.Health)
		healthRoutes.GET("/db", h.HealthComponent("db"))
		healthRoutes.GET("/s3", h.HealthComponent("s3"))
		healthRoutes.GET("/kv", h.HealthComponent("kv"))
		healthRoutes.GET("/mq", h.HealthComponent("mq"))
	}
}
