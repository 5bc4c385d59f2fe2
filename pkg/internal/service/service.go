// Package service 实现画廊的业务逻辑：条目仓储、投票账本、画廊查询与维护任务.
//
// 所有依赖通过 Options 显式注入，Cache 与 Publisher 可以为空.
package service

import (
	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/media"
	"github.com/yeisme/avatarhub/pkg/internal/storage/db"
	"github.com/yeisme/avatarhub/pkg/queue"
)

// Options 服务依赖.
type Options struct {
	DB        *db.Client
	Media     media.Store
	Cache     *cache.Cache
	Publisher queue.Publisher

	MediaConfig   configs.MediaConfig
	GalleryConfig configs.GalleryConfig
	EventsConfig  configs.EventsConfig
}

// OptionsFromConfig 用应用配置填充 Options 中的配置部分.
func OptionsFromConfig(cfg *configs.AppConfig) Options {
	return Options{
		MediaConfig:   cfg.Media,
		GalleryConfig: cfg.Gallery,
		EventsConfig:  cfg.Events,
	}
}

// Services 聚合全部服务，共享同一套依赖.
type Services struct {
	Items       *ItemService
	Votes       *VoteLedger
	Gallery     *GalleryService
	Maintenance *MaintenanceService
}

// New 基于同一组依赖创建全部服务.
func New(opts Options) *Services {
	gc := newGalleryCache(opts.Cache, opts.GalleryConfig)
	ev := newEvents(opts.Publisher, opts.EventsConfig)
	repo := NewItemRepository(opts.DB)
	votes := newVoteLedger(opts.DB, repo, gc, ev)

	return &Services{
		Items:       newItemService(opts, repo, votes, gc, ev),
		Votes:       votes,
		Gallery:     newGalleryService(opts.DB, opts.GalleryConfig, gc),
		Maintenance: newMaintenanceService(opts.DB, opts.Media, opts.MediaConfig, gc),
	}
}
