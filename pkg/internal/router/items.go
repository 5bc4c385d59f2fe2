package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/handle"
)

// RegisterItemRoutes 注册条目与投票路由.
func RegisterItemRoutes(g *gin.RouterGroup, h *handle.Handler, mw Middlewares) {
	items := g.Group("/items")
	{
		items.GET("", h.ListItems)
		items.POST("", chain(mw.WriteLimit, h.CreateItem)...)
		items.GET("/code/:code", chain(mw.ReadCache, h.GetItemByCode)...)

		single := items.Group("/:id")
		{
			single.GET("", chain(mw.ReadCache, h.GetItem)...)
			single.PATCH("", chain(mw.WriteLimit, h.UpdateItem)...)
			single.DELETE("", chain(mw.WriteLimit, h.DeleteItem)...)
			single.POST("/vote", chain(mw.VoteLimit, h.ToggleVote)...)
			single.GET("/voters", chain(mw.ReadCache, h.ListVoters)...)
		}
	}
}

// RegisterUserRoutes 注册用户维度的路由.
func RegisterUserRoutes(g *gin.RouterGroup, h *handle.Handler, mw Middlewares) {
	g.GET("/users/:id/items", chain(mw.ReadCache, h.ListUserItems)...)
}
