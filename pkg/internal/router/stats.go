package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计路由.
func RegisterStatsRoutes(g *gin.RouterGroup, h *handle.Handler) {
	g.GET("/stats", h.Stats)
}

// RegisterMaintenanceRoutes 注册手动触发的维护任务.
func RegisterMaintenanceRoutes(g *gin.RouterGroup, h *handle.Handler) {
	m := g.Group("/maintenance")
	{
		m.POST("/sweep", h.SweepOrphans)
		m.POST("/reconcile", h.ReconcileVotes)
	}
}
