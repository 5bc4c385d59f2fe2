// Package media 负责图片的规范化处理与存取.
// Store 的实现有 MinIO（S3 兼容）与内存两种，后者用于测试与本地开发.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yeisme/avatarhub/pkg/configs"
	s3c "github.com/yeisme/avatarhub/pkg/internal/storage/s3"
)

// Asset 上传成功后的图片引用.
type Asset struct {
	URL       string
	StorageID string
	Width     int
	Height    int
	Format    string
}

// Object 存储中已有的对象，用于维护任务.
type Object struct {
	StorageID    string
	Size         int64
	LastModified time.Time
}

// Store 图片存储.
type Store interface {
	// Upload 处理并保存图片，返回可公开访问的地址与存储 ID.
	Upload(ctx context.Context, data []byte, folder string) (*Asset, error)
	// Delete 删除存储 ID 对应的对象，对象不存在不视为错误.
	Delete(ctx context.Context, storageID string) error
	// List 列出目录下的全部对象.
	List(ctx context.Context, folder string) ([]Object, error)
}

// New 根据配置选择实现. s3 后端需要已建立的 MinIO 客户端.
func New(cfg configs.MediaConfig, s3 *s3c.Client) (Store, error) { //nolint:ireturn
	p := NewProcessor(cfg)

	switch cfg.Store {
	case configs.MediaStoreMemory:
		return NewMemoryStore(p, ""), nil
	case configs.MediaStoreS3, "":
		if s3 == nil {
			return nil, fmt.Errorf("media store %q requires an s3 client", configs.MediaStoreS3)
		}

		return NewMinioStore(s3, p), nil
	default:
		return nil, fmt.Errorf("unsupported media store: %s", cfg.Store)
	}
}

// newObjectKey 生成 folder/<uuid>.jpg 形式的对象键.
func newObjectKey(folder string) string {
	name := uuid.NewString() + "." + OutputFormat

	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}

	return path.Join(folder, name)
}

// folderPrefix 返回列举对象时使用的前缀.
func folderPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}

	return folder + "/"
}
