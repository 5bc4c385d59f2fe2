package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"

	s3c "github.com/yeisme/avatarhub/pkg/internal/storage/s3"
)

const imageCacheControl = "public, max-age=31536000, immutable"

// MinioStore 基于 MinIO 客户端的图片存储.
type MinioStore struct {
	client    *s3c.Client
	processor Processor
}

// NewMinioStore 创建 MinioStore.
func NewMinioStore(client *s3c.Client, p Processor) *MinioStore {
	return &MinioStore{client: client, processor: p}
}

// Upload 处理并上传图片.
func (s *MinioStore) Upload(ctx context.Context, data []byte, folder string) (*Asset, error) {
	img, err := s.processor.Process(data)
	if err != nil {
		return nil, err
	}

	key := newObjectKey(folder)

	_, err = s.client.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{
			ContentType:  "image/jpeg",
			CacheControl: imageCacheControl,
		})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &Asset{
		URL:       s.client.ObjectURL(key),
		StorageID: key,
		Width:     img.Width,
		Height:    img.Height,
		Format:    img.Format,
	}, nil
}

// Delete 删除对象.
func (s *MinioStore) Delete(ctx context.Context, storageID string) error {
	if err := s.client.RemoveObject(ctx, s.client.Bucket(), storageID, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}

		return fmt.Errorf("remove object %s: %w", storageID, err)
	}

	return nil
}

// List 列出目录下的对象.
func (s *MinioStore) List(ctx context.Context, folder string) ([]Object, error) {
	opts := minio.ListObjectsOptions{Prefix: folderPrefix(folder), Recursive: true}

	objects := make([]Object, 0)

	for obj := range s.client.ListObjects(ctx, s.client.Bucket(), opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}

		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		objects = append(objects, Object{
			StorageID:    obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC(),
		})
	}

	return objects, nil
}
