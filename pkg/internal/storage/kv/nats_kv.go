package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/avatarhub/pkg/configs"
)

const natsConnName = "avatarhub-kv"

// NATSKV 以 JetStream KV bucket 存放画廊缓存与代号.
//
// 条目级 TTL 仍由 ttl.go 的包装判断；bucket 级 MaxAge 负责回收旧代号下再也不会被读到的响应缓存.
type NATSKV struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKV 连接 NATS 并打开（必要时创建）配置中的 bucket.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("invalid NATS KV config: %T", config)
	}

	opts := []nats.Option{nats.Name(natsConnName)}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	bucket, err := openBucket(nc, cfg)
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSKV{conn: nc, kv: bucket}, nil
}

func openBucket(nc *nats.Conn, cfg *configs.NATSKVConfig) (nats.KeyValue, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	// 已存在的 bucket 直接复用，不覆盖运维侧调整过的参数
	bucket, err := js.KeyValue(cfg.Bucket)
	if err == nil {
		return bucket, nil
	}

	if !errors.Is(err, nats.ErrBucketNotFound) {
		return nil, fmt.Errorf("open kv bucket %s: %w", cfg.Bucket, err)
	}

	storage := nats.FileStorage
	if cfg.Storage == configs.NATSKVStorageMemory {
		storage = nats.MemoryStorage
	}

	bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "avatarhub gallery cache",
		History:     1,
		TTL:         cfg.MaxAge,
		Storage:     storage,
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket %s: %w", cfg.Bucket, err)
	}

	return bucket, nil
}

// lookup 读取未过期的值；过期条目顺手删除.
func (n *NATSKV) lookup(key string) ([]byte, bool, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("nats kv get %s: %w", key, err)
	}

	val, expired, err := decodeWithTTL(entry.Value(), time.Now())
	if err != nil {
		return nil, false, err
	}

	if expired {
		_ = n.kv.Delete(key)
		return nil, false, nil
	}

	return val, true, nil
}

// Get 获取键的值，不存在或已过期时返回 ErrNotFound.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	val, ok, err := n.lookup(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return val, nil
}

// Set 写入键值，ttl<=0 表示只受 bucket MaxAge 约束.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(key, encoded); err != nil {
		return fmt.Errorf("nats kv put %s: %w", key, err)
	}

	return nil
}

// Delete 删除键，键不存在不算错误.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	if err := n.kv.Delete(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv delete %s: %w", key, err)
	}

	return nil
}

// Exists 判断键是否存在且未过期.
func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := n.lookup(key)

	return ok, err
}

// Keys 流式遍历 bucket 中的键，按通配模式过滤并跳过已过期条目. ctx 结束时中止遍历.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	lister, err := n.kv.ListKeys(nats.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("nats kv list keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	result := make([]string, 0)

	for key := range lister.Keys() {
		if !matchPattern(pattern, key) {
			continue
		}

		if _, ok, err := n.lookup(key); err != nil || !ok {
			continue
		}

		result = append(result, key)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
