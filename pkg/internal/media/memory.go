package media

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore 进程内图片存储.
type MemoryStore struct {
	processor Processor
	baseURL   string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	storedAt time.Time
}

// NewMemoryStore 创建内存存储，baseURL 为空时使用 "/media".
func NewMemoryStore(p Processor, baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "/media"
	}

	return &MemoryStore{
		processor: p,
		baseURL:   strings.TrimRight(baseURL, "/"),
		objects:   make(map[string]memoryObject),
	}
}

// Upload 处理并保存图片.
func (s *MemoryStore) Upload(ctx context.Context, data []byte, folder string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.processor.Process(data)
	if err != nil {
		return nil, err
	}

	key := newObjectKey(folder)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: img.Data, storedAt: time.Now().UTC()}
	s.mu.Unlock()

	return &Asset{
		URL:       s.baseURL + "/" + key,
		StorageID: key,
		Width:     img.Width,
		Height:    img.Height,
		Format:    img.Format,
	}, nil
}

// Delete 删除对象.
func (s *MemoryStore) Delete(ctx context.Context, storageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.objects, storageID)
	s.mu.Unlock()

	return nil
}

// List 列出目录下的对象，按存储 ID 排序.
func (s *MemoryStore) List(_ context.Context, folder string) ([]Object, error) {
	prefix := folderPrefix(folder)

	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := make([]Object, 0, len(s.objects))
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, Object{StorageID: key, Size: int64(len(obj.data)), LastModified: obj.storedAt})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].StorageID < objects[j].StorageID })

	return objects, nil
}

// Has 对象是否存在.
func (s *MemoryStore) Has(storageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[storageID]

	return ok
}

// Get 返回对象内容.
func (s *MemoryStore) Get(storageID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[storageID]

	return obj.data, ok
}

// Age 调整对象的存储时间，维护任务测试使用.
func (s *MemoryStore) Age(storageID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.objects[storageID]; ok {
		obj.storedAt = obj.storedAt.Add(-d)
		s.objects[storageID] = obj
	}
}
