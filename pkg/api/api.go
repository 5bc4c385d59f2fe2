// Package api 将 HTTP 路由挂载到 gin 引擎，对外统一前缀 /api/v1.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/handle"
	"github.com/yeisme/avatarhub/pkg/internal/router"
)

// Prefix API 路由前缀.
const Prefix = "/api/v1"

// RegisterGroup 注册画廊 API 路由组，调试模式下额外挂载 swagger 文档.
func RegisterGroup(e *gin.Engine, cfg configs.ServerConfig, h *handle.Handler, mw router.Middlewares) *gin.Engine {
	router.RegisterSwaggerRoute(e, cfg)
	router.Register(e.Group(Prefix), h, mw)

	return e
}
