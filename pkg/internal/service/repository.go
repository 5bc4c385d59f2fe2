package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/storage/db"
)

// ItemPatch 元数据部分更新，nil 字段保持不变.
type ItemPatch struct {
	Name        *string
	Description *string
	Tags        *[]string
}

// ItemRepository 条目的持久化操作，不涉及图片存储.
type ItemRepository struct {
	db *db.Client
}

// NewItemRepository 创建条目仓储.
func NewItemRepository(c *db.Client) *ItemRepository {
	return &ItemRepository{db: c}
}

// Create 插入条目及其标签行. code 唯一索引冲突返回 ErrDuplicateCode.
func (r *ItemRepository) Create(ctx context.Context, it *model.Item) error {
	if strings.TrimSpace(it.Code) == "" || strings.TrimSpace(it.Name) == "" {
		return validationf("code and name are required")
	}

	if it.ImageURL == "" || it.ImageStorageID == "" {
		return validationf("image reference is required")
	}

	it.VoteCount = 0

	err := r.db.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(it).Error; err != nil {
			return err
		}

		return replaceTags(tx, it.ID, it.Tags)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, it.Code)
		}

		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// GetByID 按 ID 查询.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByCode 按头像代码查询.
func (r *ItemRepository) GetByCode(ctx context.Context, code string) (*model.Item, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *ItemRepository) first(ctx context.Context, cond string, arg any) (*model.Item, error) {
	var it model.Item
	if err := r.db.GetDB(ctx).Where(cond, arg).Take(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("query item: %w", err)
	}

	return &it, nil
}

// Update 应用部分更新，返回更新后的条目与实际变更的字段名.
func (r *ItemRepository) Update(ctx context.Context, id string, patch ItemPatch) (*model.Item, []string, error) {
	var (
		it      model.Item
		changed []string
	)

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, nil, validationf("name must not be empty")
	}

	err := r.db.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		if patch.Name != nil {
			it.Name = strings.TrimSpace(*patch.Name)
			changed = append(changed, "name")
		}

		if patch.Description != nil {
			it.Description = strings.TrimSpace(*patch.Description)
			changed = append(changed, "description")
		}

		if patch.Tags != nil {
			it.Tags = *patch.Tags
			changed = append(changed, "tags")

			if err := replaceTags(tx, it.ID, it.Tags); err != nil {
				return err
			}
		}

		if len(changed) == 0 {
			return nil
		}

		it.UpdatedAt = time.Now().UTC()
		it.RefreshSearchText()
		cols := append(append([]string{}, changed...), "search_text", "updated_at")

		return tx.Model(&it).Select(cols).Updates(&it).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, err
		}

		return nil, nil, fmt.Errorf("update item: %w", err)
	}

	return &it, changed, nil
}

// Delete 删除条目及其投票、标签行，返回记录是否存在.
func (r *ItemRepository) Delete(ctx context.Context, id string) (bool, error) {
	var existed bool

	err := r.db.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemVote{}).Error; err != nil {
			return err
		}

		if err := tx.Where("item_id = ?", id).Delete(&model.ItemTag{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.Item{})
		existed = res.RowsAffected > 0

		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}

	return existed, nil
}

// ListByOwner 列出用户创建的条目，最新的在前.
func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	items := []model.Item{}
	if err := r.db.GetDB(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items by owner: %w", err)
	}

	return items, nil
}

// replaceTags 重建条目的标签反向索引.
func replaceTags(tx *gorm.DB, itemID string, tags []string) error {
	if err := tx.Where("item_id = ?", itemID).Delete(&model.ItemTag{}).Error; err != nil {
		return err
	}

	if len(tags) == 0 {
		return nil
	}

	rows := make([]model.ItemTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, model.ItemTag{ItemID: itemID, Tag: t})
	}

	return tx.Create(&rows).Error
}
