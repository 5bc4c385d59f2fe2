package configs

import (
	"time"

	"github.com/spf13/viper"
)

// 熔断默认值. 画廊的 5xx 基本来自数据库或媒体存储不可用，打开后快速返回 503，避免上传请求堆积.
const (
	DefaultCBEnabled      = true
	DefaultCBFailureRate  = 0.5
	DefaultCBMinRequests  = 20
	DefaultCBInterval     = time.Minute
	DefaultCBOpenTimeout  = 15 * time.Second
	DefaultCBHalfOpenReqs = 3
)

// CircuitBreakerConfig 整个 API 共用的熔断器，只统计 5xx，4xx 不算失败.
type CircuitBreakerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	FailureRate float64 `mapstructure:"failure_rate" rule:"gt=0,lte=1"`
	// MinRequests 统计周期内请求数低于该值时不熔断
	MinRequests uint32 `mapstructure:"min_requests"`
	// Interval 关闭状态下清零计数的周期，0 表示不清零
	Interval time.Duration `mapstructure:"interval"`
	// OpenTimeout 打开状态持续多久后进入半开
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// HalfOpenRequests 半开状态放行的试探请求数
	HalfOpenRequests uint32 `mapstructure:"half_open_requests"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", DefaultCBEnabled)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.interval", DefaultCBInterval)
	v.SetDefault("circuit_breaker.open_timeout", DefaultCBOpenTimeout)
	v.SetDefault("circuit_breaker.half_open_requests", DefaultCBHalfOpenReqs)
}
