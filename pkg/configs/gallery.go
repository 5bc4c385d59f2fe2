package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultGalleryLimit    = 12               // 默认每页条数
	DefaultGalleryMaxLimit = 100              // 每页上限
	DefaultGalleryCacheTTL = 30 * time.Second // 列表缓存有效期
	DefaultGalleryPrefix   = "ah."            // 缓存键前缀，兼容 NATS KV 键字符集
)

// GalleryConfig 画廊查询与缓存配置.
type GalleryConfig struct {
	DefaultLimit int           `mapstructure:"default_limit" rule:"min=1"`
	MaxLimit     int           `mapstructure:"max_limit"     rule:"min=1"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// ClampLimit 将请求的每页条数规范到 [1, MaxLimit]，非正数使用默认值.
func (c *GalleryConfig) ClampLimit(limit int) int {
	if limit <= 0 {
		limit = c.DefaultLimit
	}

	if limit <= 0 {
		limit = DefaultGalleryLimit
	}

	if c.MaxLimit > 0 && limit > c.MaxLimit {
		limit = c.MaxLimit
	}

	return limit
}

func (c *GalleryConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("gallery.default_limit", DefaultGalleryLimit)
	v.SetDefault("gallery.max_limit", DefaultGalleryMaxLimit)
	v.SetDefault("gallery.cache_enabled", true)
	v.SetDefault("gallery.cache_ttl", DefaultGalleryCacheTTL)
	v.SetDefault("gallery.key_prefix", DefaultGalleryPrefix)
}
