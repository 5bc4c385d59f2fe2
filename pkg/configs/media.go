package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MediaStoreType 图片存储后端.
type MediaStoreType string

const (
	MediaStoreS3     MediaStoreType = "s3"
	MediaStoreMemory MediaStoreType = "memory"
)

const (
	DefaultMediaStore     = MediaStoreS3
	DefaultMediaFolder    = "avatars"
	DefaultMaxDimension   = 1000             // 长边上限（像素）
	DefaultJPEGQuality    = 85               // 重新编码质量
	DefaultMaxUploadBytes = 10 * 1024 * 1024 // 单张图片 10MB
	DefaultMaxPixels      = 40_000_000       // 解码前按头部声明的宽高限制像素总数
	DefaultOrphanGrace    = time.Hour        // 孤儿对象宽限期
)

// MediaConfig 图片处理与存储配置.
type MediaConfig struct {
	Store          MediaStoreType `mapstructure:"store"            rule:"oneof=s3 memory"`
	Folder         string         `mapstructure:"folder"           rule:"required"`
	MaxDimension   int            `mapstructure:"max_dimension"    rule:"min=16,max=8192"`
	JPEGQuality    int            `mapstructure:"jpeg_quality"     rule:"min=1,max=100"`
	MaxUploadBytes int64          `mapstructure:"max_upload_bytes" rule:"min=1"`
	MaxPixels      int64          `mapstructure:"max_pixels"       rule:"min=1"`
	// OrphanGrace 对象上传后多久仍未被引用才视为孤儿，避免与正在进行的创建竞争.
	OrphanGrace time.Duration `mapstructure:"orphan_grace"`
}

func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.store", DefaultMediaStore)
	v.SetDefault("media.folder", DefaultMediaFolder)
	v.SetDefault("media.max_dimension", DefaultMaxDimension)
	v.SetDefault("media.jpeg_quality", DefaultJPEGQuality)
	v.SetDefault("media.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("media.max_pixels", DefaultMaxPixels)
	v.SetDefault("media.orphan_grace", DefaultOrphanGrace)
}
