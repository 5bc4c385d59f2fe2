package handle

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 2 * time.Second

// 组件状态.
const (
	statusOK        = "ok"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// ComponentHealth 单个组件的检查结果.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type healthFunc func(ctx context.Context) error

// components 返回可检查的组件. 值为 nil 表示未启用.
func (h *Handler) components() map[string]healthFunc {
	p := map[string]healthFunc{"db": nil, "s3": nil, "kv": nil, "mq": nil}
	if h.storage == nil {
		return p
	}

	if h.storage.DB != nil {
		p["db"] = h.storage.DB.Ping
	}

	if h.storage.S3 != nil {
		p["s3"] = h.storage.S3.HealthCheck
	}

	if h.storage.KV != nil {
		p["kv"] = h.storage.KV.HealthCheck
	}

	if h.storage.MQ != nil {
		p["mq"] = h.storage.MQ.HealthCheck
	}

	return p
}

func check(ctx context.Context, name string, p healthFunc) ComponentHealth {
	if p == nil {
		return ComponentHealth{Component: name, Status: statusDisabled}
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := p(ctx); err != nil {
		return ComponentHealth{Component: name, Status: statusUnhealthy, Error: err.Error()}
	}

	return ComponentHealth{Component: name, Status: statusOK}
}

// HealthComponent 返回检查单个组件的处理函数. 未启用的组件（如内存图片存储下的 s3）报告 disabled.
//
//	@Summary	组件健康检查
//	@Tags		健康
//	@Produce	json
//	@Success	200	{object}	handle.ComponentHealth
//	@Failure	503	{object}	handle.ComponentHealth
//	@Router		/api/v1/health/{component} [get]
func (h *Handler) HealthComponent(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := check(c.Request.Context(), name, h.components()[name])

		status := http.StatusOK
		if res.Status == statusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, res)
	}
}

// Health 并发检查全部组件.
//
//	@Summary	健康检查
//	@Tags		健康
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health [get]
func (h *Handler) Health(c *gin.Context) {
	var (
		mu      sync.Mutex
		results = make([]ComponentHealth, 0, 4)
		healthy = true
	)

	g, ctx := errgroup.WithContext(c.Request.Context())

	for name, p := range h.components() {
		g.Go(func() error {
			res := check(ctx, name, p)

			mu.Lock()
			defer mu.Unlock()

			results = append(results, res)
			if res.Status == statusUnhealthy {
				healthy = false
			}

			return nil
		})
	}

	_ = g.Wait()

	status, overall := http.StatusOK, statusOK
	if !healthy {
		status, overall = http.StatusServiceUnavailable, statusUnhealthy
	}

	slices.SortFunc(results, func(a, b ComponentHealth) int { return cmp.Compare(a.Component, b.Component) })
	c.JSON(status, gin.H{"status": overall, "components": results})
}
