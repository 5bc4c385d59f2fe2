package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KV 类型.
const (
	KVTypeMemory     = "memory"
	KVTypeRedis      = "redis"
	KVTypeNATS       = "nats"
	KVTypeGroupcache = "groupcache"
)

// KVConfig 键值存储配置.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATS KV bucket 存储介质.
const (
	NATSKVStorageFile   = "file"
	NATSKVStorageMemory = "memory"
)

// DefaultNATSKVMaxAge 画廊代号递增后旧响应缓存不会再被读取，由 bucket MaxAge 统一回收.
const DefaultNATSKVMaxAge = 24 * time.Hour

// NATSKVConfig NATS KV 配置. MaxAge 与 Storage 只在首次创建 bucket 时生效.
type NATSKVConfig struct {
	URL      string        `mapstructure:"url"      rule:"required"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Bucket   string        `mapstructure:"bucket"   rule:"required"`
	MaxAge   time.Duration `mapstructure:"max_age"  rule:"min=0"`
	Storage  string        `mapstructure:"storage"  rule:"omitempty,oneof=file memory"`
}

// GroupcacheKVConfig Groupcache KV 配置.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"` // 最小1MB
	Peers      []string `mapstructure:"peers"`
	Self       string   `mapstructure:"self"`
}

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// Options 返回当前类型对应的子配置，供 KV 工厂使用.
func (c *KVConfig) Options() any {
	switch c.Type {
	case KVTypeRedis:
		return &c.Redis
	case KVTypeNATS:
		return &c.NATS
	case KVTypeGroupcache:
		return &c.Groupcache
	default:
		return nil
	}
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", KVTypeMemory)

	// Redis 默认值
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)

	// NATS 默认值
	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", "avatarhub-kv")
	v.SetDefault("kv.nats.max_age", DefaultNATSKVMaxAge)
	v.SetDefault("kv.nats.storage", NATSKVStorageFile)

	const defaultGroupcacheBytes = 64 * 1024 * 1024 // 64MB
	// Groupcache 默认值
	v.SetDefault("kv.groupcache.name", "avatarhub-cache")
	v.SetDefault("kv.groupcache.cache_bytes", defaultGroupcacheBytes)
	v.SetDefault("kv.groupcache.peers", []string{})
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
}
