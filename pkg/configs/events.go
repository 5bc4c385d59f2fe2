package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	Item    ItemEventsConfig `mapstructure:"item"`
	// Consume 是否在进程内订阅事件（更新指标与日志）
	Consume bool `mapstructure:"consume"`
}

// ItemEventsConfig 画廊条目相关的事件开关。
type ItemEventsConfig struct {
	Created bool `mapstructure:"created"`
	Updated bool `mapstructure:"updated"`
	Deleted bool `mapstructure:"deleted"`
	Voted   bool `mapstructure:"voted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.consume", true)

	v.SetDefault("events.item.created", true)
	v.SetDefault("events.item.deleted", true)
	v.SetDefault("events.item.voted", true)
	// 元数据修改较频繁，默认关闭
	v.SetDefault("events.item.updated", false)
}
