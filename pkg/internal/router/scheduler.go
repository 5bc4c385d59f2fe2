package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册调度器相关路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup, h *handle.Handler) {
	g.GET("/scheduler/jobs", h.SchedulerJobs)
	g.GET("/scheduler/jobs/:name", h.SchedulerJob)
	g.POST("/scheduler/jobs/:name/run", h.SchedulerRunJob)
	g.POST("/scheduler/jobs/stop", h.SchedulerStopJobs)
	g.DELETE("/scheduler/jobs/:name", h.SchedulerRemoveJob)
	g.GET("/scheduler/queue/waiting", h.SchedulerQueueWaiting)
}
