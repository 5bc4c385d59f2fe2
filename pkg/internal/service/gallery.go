package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/storage/db"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	"github.com/yeisme/avatarhub/pkg/metrics"
	"github.com/yeisme/avatarhub/pkg/tracing"
)

// likeEscape LIKE 转义字符. 反斜杠在不同数据库的字符串字面量中含义不同，故使用 '!'.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// 排序子句，末尾的 id 保证翻页稳定.
var sortOrders = map[string][]string{
	types.SortRecent:  {"created_at DESC", "id DESC"},
	types.SortPopular: {"vote_count DESC", "created_at DESC", "id DESC"},
	types.SortName:    {"name ASC", "id ASC"},
}

// GalleryService 画廊查询：搜索、筛选、排序与分页.
type GalleryService struct {
	db    *db.Client
	cfg   configs.GalleryConfig
	cache *galleryCache
}

func newGalleryService(c *db.Client, cfg configs.GalleryConfig, gc *galleryCache) *GalleryService {
	return &GalleryService{db: c, cfg: cfg, cache: gc}
}

// Normalize 将查询参数规范化：未知排序回退为 recent，页码从 1 开始，条数限制在上限内.
// 标签排序去重，使等价查询得到相同的缓存键.
func (g *GalleryService) Normalize(q types.ListItemsQuery) types.GalleryFilter {
	f := types.GalleryFilter{
		Search: strings.TrimSpace(q.Search),
		Style:  strings.TrimSpace(q.Style),
		Role:   strings.TrimSpace(q.Role),
		SortBy: strings.ToLower(strings.TrimSpace(q.SortBy)),
		Page:   max(q.Page, 1),
		Limit:  g.cfg.ClampLimit(q.Limit),
		Tags:   []string{},
	}

	if _, ok := sortOrders[f.SortBy]; !ok {
		f.SortBy = types.SortRecent
	}

	for _, t := range SplitTags(q.Tags) {
		if t = strings.TrimSpace(t); t != "" {
			f.Tags = append(f.Tags, t)
		}
	}

	slices.Sort(f.Tags)
	f.Tags = slices.Compact(f.Tags)

	return f
}

// List 返回一页条目. 超出范围的页返回空列表.
func (g *GalleryService) List(ctx context.Context, q types.ListItemsQuery) (*types.ListItemsResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "GalleryService.List")
	defer span.End()

	f := g.Normalize(q)

	if !g.cache.active() {
		return g.query(ctx, f)
	}

	hash, err := cache.HashKey(f)
	if err != nil {
		return g.query(ctx, f)
	}

	key, err := g.cache.key(ctx, "list."+hash)
	if err != nil {
		metrics.GalleryCacheTotal.WithLabelValues("error").Inc()
		return g.query(ctx, f)
	}

	res, hit, err := cache.GetOrSetHit(ctx, g.cache.c, key, func() (*types.ListItemsResponse, error) {
		return g.query(ctx, f)
	}, g.cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	if hit {
		metrics.GalleryCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.GalleryCacheTotal.WithLabelValues("miss").Inc()
	}

	return res, nil
}

// filtered 构造带筛选条件的查询，每次调用返回新的语句.
func (g *GalleryService) filtered(ctx context.Context, f types.GalleryFilter) *gorm.DB {
	dbx := g.db.GetDB(ctx)
	q := dbx.Model(&model.Item{})

	if f.Search != "" {
		like := "%" + likeReplacer.Replace(model.FoldSearch(f.Search)) + "%"
		q = q.Where("search_text LIKE ? ESCAPE '!'", like)
	}

	if f.Style != "" {
		q = q.Where("style = ?", f.Style)
	}

	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	if len(f.Tags) > 0 {
		sub := dbx.Model(&model.ItemTag{}).Select("item_id").Where("tag IN ?", f.Tags)
		q = q.Where("id IN (?)", sub)
	}

	return q
}

func (g *GalleryService) query(ctx context.Context, f types.GalleryFilter) (*types.ListItemsResponse, error) {
	var total int64
	if err := g.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	items := []model.Item{}
	limit := int64(f.Limit)
	totalPages := (total + limit - 1) / limit

	// 页码先与总页数比较，超出范围时不计算偏移，避免大页码溢出
	if page := int64(f.Page); page <= totalPages {
		q := g.filtered(ctx, f)
		for _, o := range sortOrders[f.SortBy] {
			q = q.Order(o)
		}

		if err := q.Limit(f.Limit).Offset(int((page - 1) * limit)).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
	}

	return &types.ListItemsResponse{
		Data: items,
		Pagination: types.Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: int(totalPages),
		},
	}, nil
}

// Stats 画廊统计，与列表共享缓存代号.
func (g *GalleryService) Stats(ctx context.Context) (*types.GalleryStats, error) {
	if !g.cache.active() {
		return g.stats(ctx)
	}

	key, err := g.cache.key(ctx, "stats")
	if err != nil {
		return g.stats(ctx)
	}

	return cache.GetOrSet(ctx, g.cache.c, key, func() (*types.GalleryStats, error) {
		return g.stats(ctx)
	}, g.cfg.CacheTTL)
}

func (g *GalleryService) stats(ctx context.Context) (*types.GalleryStats, error) {
	dbx := g.db.GetDB(ctx)

	var agg struct {
		Items int64 `gorm:"column:items"`
		Votes int64 `gorm:"column:votes"`
	}

	if err := dbx.Model(&model.Item{}).
		Select("COUNT(*) AS items, COALESCE(SUM(vote_count),0) AS votes").
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("aggregate items: %w", err)
	}

	var voters int64
	if err := dbx.Model(&model.ItemVote{}).Distinct("user_id").Count(&voters).Error; err != nil {
		return nil, fmt.Errorf("count voters: %w", err)
	}

	byStyle := []types.StyleCount{}
	if err := dbx.Model(&model.Item{}).
		Select("style, COUNT(*) AS count").
		Where("style <> ''").
		Group("style").
		Order("count DESC").
		Order("style ASC").
		Scan(&byStyle).Error; err != nil {
		return nil, fmt.Errorf("count styles: %w", err)
	}

	return &types.GalleryStats{
		Items:   agg.Items,
		Votes:   agg.Votes,
		Voters:  voters,
		ByStyle: byStyle,
	}, nil
}

// CacheGeneration 返回当前缓存代号，供响应缓存拼接键. 缓存未启用或读取失败时 ok 为 false.
func (g *GalleryService) CacheGeneration(ctx context.Context) (gen string, ok bool) {
	if !g.cache.active() {
		return "", false
	}

	gen, err := g.cache.c.Generation(ctx, g.cache.genKey())
	if err != nil {
		return "", false
	}

	return gen, true
}
