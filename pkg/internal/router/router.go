// Package router 把处理器绑定到 gin 路由组.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/handle"
	"github.com/yeisme/avatarhub/pkg/middleware"
)

// Middlewares 由应用层注入的按路由中间件，为空的项被忽略.
type Middlewares struct {
	// ReadCache 单条目与用户条目等读接口的响应缓存
	ReadCache gin.HandlerFunc
	// WriteLimit 创建、修改、删除的限流
	WriteLimit gin.HandlerFunc
	// VoteLimit 投票切换的限流，与 WriteLimit 各自计数
	VoteLimit gin.HandlerFunc
}

// Register 在传入的路由组（通常是 /api/v1）下注册全部路由:
//
//	GET    /items                 -> ListItems
//	POST   /items                 -> CreateItem
//	GET    /items/code/:code      -> GetItemByCode
//	GET    /items/:id             -> GetItem
//	PATCH  /items/:id             -> UpdateItem
//	DELETE /items/:id             -> DeleteItem
//	POST   /items/:id/vote        -> ToggleVote
//	GET    /items/:id/voters      -> ListVoters
//	GET    /users/:id/items       -> ListUserItems
//	GET    /stats                 -> Stats
//	GET    /health[/db|s3|kv|mq]  -> Health
//	       /admin/...             -> 调度器与维护任务，需要 admin 角色
func Register(g *gin.RouterGroup, h *handle.Handler, mw Middlewares) {
	RegisterItemRoutes(g, h, mw)
	RegisterUserRoutes(g, h, mw)
	RegisterStatsRoutes(g, h)
	RegisterHealthCheckRoute(g, h)

	admin := g.Group("/admin", middleware.RequireMinRole(middleware.RoleAdmin))
	RegisterSchedulerRoutes(admin, h)
	RegisterMaintenanceRoutes(admin, h)
}

// chain 去掉为空的中间件后追加处理器.
func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, fn := range handlers {
		if fn != nil {
			out = append(out, fn)
		}
	}

	return out
}
