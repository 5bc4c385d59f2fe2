package configs

import "github.com/spf13/viper"

// 写接口限流默认值. 投票是切换操作，连点会反复增减计数，单独给更紧的桶.
const (
	DefaultRateLimitEnabled   = true
	DefaultRateLimitKey       = "user"
	DefaultRateLimitRPS       = 2.0 // 创建、修改、删除
	DefaultRateLimitBurst     = 10
	DefaultRateLimitVoteRPS   = 1.0
	DefaultRateLimitVoteBurst = 5
)

// RateLimitConfig 画廊写接口的令牌桶限流，读接口不限流.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Key 限流维度：user（调用者身份，匿名回退 IP）、ip、global、header:<Name>
	Key   string  `mapstructure:"key"`
	RPS   float64 `mapstructure:"rps"   rule:"min=0"`
	Burst int     `mapstructure:"burst" rule:"min=1"`
	// Vote 投票路由的独立令牌桶，Key 与 Enabled 沿用上层
	Vote RateLimitBucket `mapstructure:"vote"`
}

// RateLimitBucket 单个令牌桶的速率与容量.
type RateLimitBucket struct {
	RPS   float64 `mapstructure:"rps"   rule:"min=0"`
	Burst int     `mapstructure:"burst" rule:"min=1"`
}

// ForVotes 返回投票路由使用的限流配置. 未单独配置速率时沿用写接口的桶.
func (c RateLimitConfig) ForVotes() RateLimitConfig {
	out := c
	out.Vote = RateLimitBucket{}

	if c.Vote.RPS > 0 {
		out.RPS = c.Vote.RPS
		out.Burst = c.Vote.Burst
	}

	if out.Burst < 1 {
		out.Burst = 1
	}

	return out
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.vote.rps", DefaultRateLimitVoteRPS)
	v.SetDefault("rate_limit.vote.burst", DefaultRateLimitVoteBurst)
}
