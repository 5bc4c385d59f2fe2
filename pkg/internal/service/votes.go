package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/storage/db"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	"github.com/yeisme/avatarhub/pkg/metrics"
	"github.com/yeisme/avatarhub/pkg/tracing"
)

// 投票切换结果.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// VoteLedger 投票账本. 每个用户对每个条目至多一票，
// vote_count 与 item_votes 行数在同一事务内同步变化.
type VoteLedger struct {
	db     *db.Client
	repo   *ItemRepository
	cache  *galleryCache
	events *events
}

func newVoteLedger(c *db.Client, repo *ItemRepository, gc *galleryCache, ev *events) *VoteLedger {
	return &VoteLedger{db: c, repo: repo, cache: gc, events: ev}
}

// Toggle 切换用户对条目的投票：已投则撤销，未投则投下.
func (l *VoteLedger) Toggle(ctx context.Context, itemID, userID string) (*types.VoteResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationf("user id is required")
	}

	ctx, span := tracing.StartSpan(ctx, "VoteLedger.Toggle")
	defer span.End()

	var res types.VoteResponse

	err := l.db.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.lockItem(tx, itemID); err != nil {
			return err
		}

		del := tx.Where("item_id = ? AND user_id = ?", itemID, userID).Delete(&model.ItemVote{})
		if del.Error != nil {
			return del.Error
		}

		delta, action := int64(-1), ActionRemoved
		if del.RowsAffected == 0 {
			vote := model.ItemVote{ItemID: itemID, UserID: userID, CreatedAt: time.Now().UTC()}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}

			delta, action = 1, ActionAdded
		}

		if err := tx.Model(&model.Item{}).Where("id = ?", itemID).Updates(map[string]any{
			"vote_count": gorm.Expr("vote_count + ?", delta),
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
			return err
		}

		var it model.Item
		if err := tx.Select("vote_count").Where("id = ?", itemID).Take(&it).Error; err != nil {
			return err
		}

		res = types.VoteResponse{VoteCount: it.VoteCount, Action: action}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("toggle vote: %w", err)
	}

	l.cache.invalidate(ctx)
	l.events.itemVoted(ctx, itemID, userID, res.Action, res.VoteCount)
	metrics.VotesTotal.WithLabelValues(res.Action).Inc()

	return &res, nil
}

// lockItem 锁定条目行直到事务结束. 不支持行锁的数据库（SQLite）以一次写入获取写锁，
// 避免读后升级写锁时与其他事务冲突.
func (l *VoteLedger) lockItem(tx *gorm.DB, itemID string) error {
	if l.db.SupportsRowLock() {
		var it model.Item

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", itemID).Take(&it).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return err
	}

	res := tx.Model(&model.Item{}).Where("id = ?", itemID).UpdateColumn("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// HasVoted 用户当前是否对条目投了票.
func (l *VoteLedger) HasVoted(ctx context.Context, itemID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	var n int64
	if err := l.db.GetDB(ctx).Model(&model.ItemVote{}).
		Where("item_id = ? AND user_id = ?", itemID, userID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("query vote: %w", err)
	}

	return n > 0, nil
}

// Voters 列出对条目投票的用户，按投票时间排序.
func (l *VoteLedger) Voters(ctx context.Context, itemID string) ([]string, error) {
	if _, err := l.repo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	voters := []string{}
	if err := l.db.GetDB(ctx).Model(&model.ItemVote{}).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Order("user_id ASC").
		Pluck("user_id", &voters).Error; err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}

	return voters, nil
}
