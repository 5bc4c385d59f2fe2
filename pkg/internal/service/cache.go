package service

import (
	"context"

	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	nlog "github.com/yeisme/avatarhub/pkg/log"
)

// galleryCache 画廊读缓存. 所有条目键都带当前代号，写操作只需更换代号即可整体失效，
// 旧代号下的条目依靠 TTL 自然过期.
type galleryCache struct {
	c   *cache.Cache
	cfg configs.GalleryConfig
}

func newGalleryCache(c *cache.Cache, cfg configs.GalleryConfig) *galleryCache {
	return &galleryCache{c: c, cfg: cfg}
}

func (g *galleryCache) active() bool {
	return g != nil && g.c != nil && g.cfg.CacheEnabled
}

func (g *galleryCache) genKey() string {
	return g.cfg.KeyPrefix + "gallery.gen"
}

// key 返回 <prefix>gallery.<gen>.<name> 形式的缓存键.
func (g *galleryCache) key(ctx context.Context, name string) (string, error) {
	gen, err := g.c.Generation(ctx, g.genKey())
	if err != nil {
		return "", err
	}

	return g.cfg.KeyPrefix + "gallery." + gen + "." + name, nil
}

// invalidate 更换代号. 失败只记录日志，缓存最多滞后一个 TTL.
func (g *galleryCache) invalidate(ctx context.Context) {
	if !g.active() {
		return
	}

	if err := g.c.BumpGeneration(ctx, g.genKey()); err != nil {
		l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		l.Warn().Err(err).Msg("bump gallery cache generation failed")
	}
}
