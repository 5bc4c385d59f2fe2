// Package middleware 提供 gin 中间件：身份识别、角色、限流、熔断、响应缓存、追踪、指标与请求日志.
//
// 中间件的拒绝响应统一使用 types.Envelope 结构 {success:false, error}.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/types"
	"github.com/yeisme/avatarhub/pkg/metrics"
)

// abort 以统一的错误结构终止请求.
func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, types.Envelope{Success: false, Error: msg})
}

// PrometheusMiddleware 记录请求数、耗时与进行中的请求数. 未匹配路由的请求归入 "unmatched"，避免标签基数膨胀.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		method := c.Request.Method
		metrics.RequestCounter.WithLabelValues(method, endpoint, statusClass(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// statusClass 将状态码归为 2xx/3xx/4xx/5xx.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
