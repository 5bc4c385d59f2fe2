package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	"github.com/yeisme/avatarhub/pkg/internal/media"
	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/storage/db"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	nlog "github.com/yeisme/avatarhub/pkg/log"
)

// MaintenanceService 后台维护：清理孤儿图片、校对投票计数.
type MaintenanceService struct {
	db    *db.Client
	media media.Store
	cfg   configs.MediaConfig
	cache *galleryCache
	now   func() time.Time
}

func newMaintenanceService(c *db.Client, store media.Store, cfg configs.MediaConfig, gc *galleryCache) *MaintenanceService {
	return &MaintenanceService{db: c, media: store, cfg: cfg, cache: gc, now: time.Now}
}

// SweepOrphans 删除图片目录中未被任何条目引用、且超过宽限期的对象.
// 宽限期内的对象可能属于正在创建的条目.
func (m *MaintenanceService) SweepOrphans(ctx context.Context, dryRun bool) (*types.SweepReport, error) {
	l := ctxPkg.WithTraceContext(ctx, *nlog.Logger()).With().Str("task", "orphan_sweep").Logger()

	objs, err := m.media.List(ctx, m.cfg.Folder)
	if err != nil {
		return nil, fmt.Errorf("%w: list media: %w", ErrUpstream, err)
	}

	var refs []string
	if err := m.db.GetDB(ctx).Model(&model.Item{}).Pluck("image_storage_id", &refs).Error; err != nil {
		return nil, fmt.Errorf("list referenced media: %w", err)
	}

	referenced := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		referenced[r] = struct{}{}
	}

	report := &types.SweepReport{Scanned: len(objs), Orphans: []string{}, DryRun: dryRun}
	cutoff := m.now().Add(-m.cfg.OrphanGrace)

	var errs []error

	for _, o := range objs {
		if _, ok := referenced[o.StorageID]; ok || o.LastModified.After(cutoff) {
			continue
		}

		report.Orphans = append(report.Orphans, o.StorageID)

		if dryRun {
			continue
		}

		if err := m.media.Delete(ctx, o.StorageID); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", o.StorageID, err))
			continue
		}

		report.Deleted++
	}

	l.Info().Int("scanned", report.Scanned).Int("orphans", len(report.Orphans)).
		Int("deleted", report.Deleted).Bool("dry_run", dryRun).Msg("orphan sweep finished")

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrUpstream, errors.Join(errs...))
	}

	return report, nil
}

// ReconcileVotes 比较 vote_count 与投票行数，非 dryRun 时以投票行为准修复.
func (m *MaintenanceService) ReconcileVotes(ctx context.Context, dryRun bool) (*types.ReconcileReport, error) {
	l := ctxPkg.WithTraceContext(ctx, *nlog.Logger()).With().Str("task", "vote_reconcile").Logger()
	dbx := m.db.GetDB(ctx)

	var rows []struct {
		ID        string `gorm:"column:id"`
		VoteCount int64  `gorm:"column:vote_count"`
		Actual    int64  `gorm:"column:actual"`
	}

	if err := dbx.Table("items").
		Select("items.id, items.vote_count, COUNT(item_votes.user_id) AS actual").
		Joins("LEFT JOIN item_votes ON item_votes.item_id = items.id").
		Group("items.id, items.vote_count").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate votes: %w", err)
	}

	report := &types.ReconcileReport{Checked: len(rows), Drift: []types.VoteDrift{}, DryRun: dryRun}

	for _, r := range rows {
		if r.VoteCount == r.Actual {
			continue
		}

		report.Drift = append(report.Drift, types.VoteDrift{ItemID: r.ID, Recorded: r.VoteCount, Actual: r.Actual})
		l.Warn().Str("item_id", r.ID).Int64("recorded", r.VoteCount).Int64("actual", r.Actual).Msg("vote count drift")

		if dryRun {
			continue
		}

		// 子查询在同一语句内计算，不受并发投票影响
		err := dbx.Model(&model.Item{}).Where("id = ?", r.ID).
			UpdateColumn("vote_count", dbx.Model(&model.ItemVote{}).Select("COUNT(*)").Where("item_id = ?", r.ID)).Error
		if err != nil {
			return report, fmt.Errorf("repair %s: %w", r.ID, err)
		}

		report.Repaired++
	}

	if report.Repaired > 0 {
		m.cache.invalidate(ctx)
	}

	l.Info().Int("checked", report.Checked).Int("drift", len(report.Drift)).
		Int("repaired", report.Repaired).Bool("dry_run", dryRun).Msg("vote reconcile finished")

	return report, nil
}
