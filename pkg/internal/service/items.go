package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	"github.com/yeisme/avatarhub/pkg/internal/media"
	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	nlog "github.com/yeisme/avatarhub/pkg/log"
	"github.com/yeisme/avatarhub/pkg/metrics"
	"github.com/yeisme/avatarhub/pkg/rule"
	"github.com/yeisme/avatarhub/pkg/tracing"
)

// maxTags 单个条目的标签数上限.
const maxTags = 20

// ItemService 条目的上游流程：协调图片存储、仓储、缓存与事件.
type ItemService struct {
	repo     *ItemRepository
	votes    *VoteLedger
	media    media.Store
	mediaCfg configs.MediaConfig
	cache    *galleryCache
	events   *events
}

func newItemService(opts Options, repo *ItemRepository, votes *VoteLedger, gc *galleryCache, ev *events) *ItemService {
	return &ItemService{
		repo:     repo,
		votes:    votes,
		media:    opts.Media,
		mediaCfg: opts.MediaConfig,
		cache:    gc,
		events:   ev,
	}
}

// Repository 返回底层仓储.
func (s *ItemService) Repository() *ItemRepository { return s.repo }

// Create 校验、上传图片并持久化条目. 持久化失败时删除已上传的图片.
// 调用者身份优先于 in.OwnerID.
func (s *ItemService) Create(ctx context.Context, in types.CreateItemInput) (*model.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "ItemService.Create")
	defer span.End()

	l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())

	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)

	if in.Code == "" || in.Name == "" {
		return nil, validationf("code and name are required")
	}

	if len(in.Image) == 0 {
		return nil, validationf("image is required")
	}

	owner := ctxPkg.GetUser(ctx)
	if owner == "" {
		owner = strings.TrimSpace(in.OwnerID)
	}

	if owner == "" {
		return nil, ErrUnauthorized
	}

	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	// 预检只是优化，唯一索引才是最终保证
	if _, err := s.repo.GetByCode(ctx, in.Code); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, in.Code)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	asset, err := s.media.Upload(ctx, in.Image, s.mediaCfg.Folder)
	if err != nil {
		return nil, mediaError(err)
	}

	now := time.Now().UTC()
	it := &model.Item{
		ID:             newItemID(now),
		Code:           in.Code,
		Name:           in.Name,
		Description:    strings.TrimSpace(in.Description),
		Tags:           tags,
		Style:          strings.TrimSpace(in.Style),
		Role:           strings.TrimSpace(in.Role),
		ImageURL:       asset.URL,
		ImageStorageID: asset.StorageID,
		ImageWidth:     asset.Width,
		ImageHeight:    asset.Height,
		ImageFormat:    asset.Format,
		OwnerID:        owner,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, it); err != nil {
		if delErr := s.media.Delete(ctx, asset.StorageID); delErr != nil {
			l.Error().Err(delErr).Str("storage_id", asset.StorageID).Msg("compensating media delete failed")
		}

		return nil, err
	}

	s.cache.invalidate(ctx)
	s.events.itemCreated(ctx, it)
	metrics.ItemsTotal.WithLabelValues("created").Inc()

	l.Info().Str("item_id", it.ID).Str("owner", owner).Msg("item created")

	return it, nil
}

// Get 按 ID 查询，并标记当前调用者是否已投票.
func (s *ItemService) Get(ctx context.Context, id string) (*types.ItemResponse, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.withVoted(ctx, it)
}

// GetByCode 按头像代码查询.
func (s *ItemService) GetByCode(ctx context.Context, code string) (*types.ItemResponse, error) {
	it, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}

	return s.withVoted(ctx, it)
}

func (s *ItemService) withVoted(ctx context.Context, it *model.Item) (*types.ItemResponse, error) {
	voted, err := s.votes.HasVoted(ctx, it.ID, ctxPkg.GetUser(ctx))
	if err != nil {
		return nil, err
	}

	return &types.ItemResponse{Item: *it, Voted: voted}, nil
}

// ListByOwner 列出用户的条目.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, validationf("owner id is required")
	}

	return s.repo.ListByOwner(ctx, ownerID)
}

// Update 修改名称、描述或标签，仅所有者或管理员可操作.
func (s *ItemService) Update(ctx context.Context, id string, req types.UpdateItemRequest) (*model.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "ItemService.Update")
	defer span.End()

	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := authorize(ctx, it)
	if err != nil {
		return nil, err
	}

	patch := ItemPatch{Name: req.Name, Description: req.Description}

	if req.Tags != nil {
		tags, err := NormalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}

		patch.Tags = &tags
	}

	updated, fields, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		s.cache.invalidate(ctx)
		s.events.itemUpdated(ctx, updated, fields, actor)
		metrics.ItemsTotal.WithLabelValues("updated").Inc()
	}

	return updated, nil
}

// Delete 先删除图片再删除记录；图片删除失败时保留记录.
func (s *ItemService) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ItemService.Delete")
	defer span.End()

	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	actor, err := authorize(ctx, it)
	if err != nil {
		return false, err
	}

	if err := s.media.Delete(ctx, it.ImageStorageID); err != nil {
		return false, fmt.Errorf("%w: media delete: %w", ErrUpstream, err)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.cache.invalidate(ctx)
		s.events.itemDeleted(ctx, it, actor)
		metrics.ItemsTotal.WithLabelValues("deleted").Inc()
	}

	return deleted, nil
}

// authorize 调用者必须是条目所有者或管理员.
func authorize(ctx context.Context, it *model.Item) (string, error) {
	actor := ctxPkg.GetUser(ctx)
	if actor == "" {
		return "", ErrUnauthorized
	}

	if actor != it.OwnerID && !ctxPkg.IsAdmin(ctx) {
		return "", ErrForbidden
	}

	return actor, nil
}

// NormalizeTags 去除首尾空白、丢弃空值并去重，保持首次出现的顺序.
func NormalizeTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))

	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}

		if !rule.IsTagName(t) {
			return nil, validationf("invalid tag %q", t)
		}

		out = append(out, t)
	}

	if len(out) > maxTags {
		return nil, validationf("at most %d tags allowed", maxTags)
	}

	return out, nil
}

// SplitTags 拆分逗号分隔的标签串.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return strings.Split(s, ",")
}
