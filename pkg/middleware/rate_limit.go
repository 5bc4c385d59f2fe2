package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/avatarhub/pkg/configs"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	maxLimiterEntries      = 10000
)

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// key 取值：global、ip、user（调用者身份，缺省回退 IP）、header:<Name>.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				abort(c, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			c.Next()
		}
	}

	limiters := newLimiterSet(rate.Limit(cfg.RPS), cfg.Burst)

	return func(c *gin.Context) {
		key := limitKey(c, keyMode)
		if key == "" {
			key = "unknown"
		}

		if !limiters.get(key).Allow() {
			abort(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		c.Next()
	}
}

func limitKey(c *gin.Context, mode string) string {
	switch {
	case strings.HasPrefix(mode, "header:"):
		if v := c.GetHeader(strings.TrimPrefix(mode, "header:")); v != "" {
			return v
		}
	case mode == "user":
		if u := GetUser(c); u != "" {
			return "u:" + u
		}
	}

	return clientIP(c)
}

// limiterSet 按键维护 limiter. 数量超过上限时整体重置.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	lastSwap time.Time
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{limiters: map[string]*rate.Limiter{}, limit: limit, burst: burst, lastSwap: time.Now()}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.limiters) > maxLimiterEntries && time.Since(s.lastSwap) > limiterCleanupInterval {
		s.limiters = map[string]*rate.Limiter{}
		s.lastSwap = time.Now()
	}

	if l, ok := s.limiters[key]; ok {
		return l
	}

	l := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = l

	return l
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
