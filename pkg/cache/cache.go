// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 JSON（bytedance/sonic）序列化，支持 TTL.
// 失效采用"代"（generation）方案：读取方把当前代号拼进键里，写入方只需递增代号，
// 旧代的条目随 TTL 自然过期，不需要逐个删除.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore)
//
//	gen, _ := c.Generation(ctx, "ah.gallery.gen")
//	hash, _ := cache.HashKey(filters)
//	key := "ah.gallery.list." + gen + "." + hash
//
//	page, err := cache.GetOrSet(ctx, c, key, func() (Page, error) {
//	    return loadFromDB(ctx, filters)
//	}, 30*time.Second)
//
//	// 数据变更后
//	_ = c.BumpGeneration(ctx, "ah.gallery.gen")
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/avatarhub/pkg/internal/storage/kv"
)

// initialGeneration 代号键不存在时使用的默认值.
const initialGeneration = "0"

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{
		kvStore: kvStore,
	}
}

// IsMiss 判断错误是否为缓存未命中.
func IsMiss(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet 获取缓存值，未命中时调用 getter 并回填.
// 同一进程内相同键的并发未命中只会调用一次 getter，回填失败不影响返回值.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	value, _, err := GetOrSetHit(ctx, c, key, getter, ttl)
	return value, err
}

// GetOrSetHit 同 GetOrSet，额外返回是否命中缓存.
func GetOrSetHit[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, bool, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return nil, err
		}

		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		return zero, false, err
	}

	value, ok := v.(T)
	if !ok {
		return zero, false, fmt.Errorf("unexpected cached type %T", v)
	}

	return value, false, nil
}

// Generation 返回代号键的当前值，不存在时返回 "0".
func (c *Cache) Generation(ctx context.Context, key string) (string, error) {
	data, err := c.kvStore.Get(ctx, key)
	if IsMiss(err) {
		return initialGeneration, nil
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// BumpGeneration 写入新的随机代号，使该代下的所有缓存条目失效.
func (c *Cache) BumpGeneration(ctx context.Context, key string) error {
	return c.kvStore.Set(ctx, key, []byte(uuid.NewString()), 0)
}

// HashKey 将任意可序列化的值规范为稳定的十六进制摘要，用于拼接缓存键.
func HashKey(v any) (string, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}

	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// Clear 清空匹配模式的缓存键，空模式清空全部.
func (c *Cache) Clear(ctx context.Context, pattern string) error {
	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
