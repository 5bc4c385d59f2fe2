// Package storage 聚合应用使用的存储资源：数据库、对象存储、KV 与消息队列.
//
// Example:
//
//	mgr, err := storage.New(ctx, cfg)
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	items := mgr.DB.GetDB(ctx).Model(&model.Item{})
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/avatarhub/pkg/configs"
	dbc "github.com/yeisme/avatarhub/pkg/internal/storage/db"
	kvc "github.com/yeisme/avatarhub/pkg/internal/storage/kv"
	mqc "github.com/yeisme/avatarhub/pkg/internal/storage/mq"
	s3c "github.com/yeisme/avatarhub/pkg/internal/storage/s3"
	nlog "github.com/yeisme/avatarhub/pkg/log"
)

// Manager 聚合所有存储资源. S3 仅在图片存储后端为 s3 时创建.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	KV *kvc.Client
	MQ *mqc.Client
}

// New 按配置依次建立各存储连接，任一失败时关闭已建立的连接.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	var err error

	if m.DB, err = dbc.New(ctx, &cfg.DB, cfg.Metrics.Enabled && cfg.Metrics.DBMetrics); err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if cfg.Media.Store == configs.MediaStoreS3 {
		if m.S3, err = s3c.New(ctx, &cfg.S3); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init s3: %w", err)
		}
	}

	if m.KV, err = kvc.NewKVClient(ctx, &cfg.KV); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx, &cfg.MQ, cfg.Metrics.Enabled); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	nlog.Logger().Info().
		Str("db", cfg.DB.GetDBType()).
		Str("media", string(cfg.Media.Store)).
		Str("kv", string(m.KV.Type())).
		Str("mq", string(m.MQ.Type())).
		Msg("storage manager initialized")

	return m, nil
}

// Close 关闭所有已建立的连接.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
