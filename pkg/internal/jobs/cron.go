// Package jobs 负责注册与实现画廊的维护任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/log"
	"github.com/yeisme/avatarhub/pkg/scheduler"
)

// RegisterCronJobs 按配置注册维护任务：
//   - 孤儿图片清理：删除未被任何条目引用且超过宽限期的对象
//   - 投票计数校对：以投票行为准修复 vote_count 漂移
func RegisterCronJobs(sched *scheduler.Scheduler, svc *service.MaintenanceService, cfg configs.JobsConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if svc == nil {
		return fmt.Errorf("maintenance service is nil")
	}

	if !cfg.Enabled {
		log.Logger().Info().Msg("maintenance jobs disabled")
		return nil
	}

	if cfg.OrphanSweep.Enabled {
		if err := sched.AddCron(JobOrphanMediaSweep, cfg.OrphanSweep.Cron, OrphanSweep(svc, cfg.OrphanSweep.DryRun)); err != nil {
			return err
		}
	}

	if cfg.VoteReconcile.Enabled {
		if err := sched.AddCron(JobVoteReconcile, cfg.VoteReconcile.Cron, VoteReconcile(svc, cfg.VoteReconcile.DryRun)); err != nil {
			return err
		}
	}

	return nil
}

// OrphanSweep 返回孤儿图片清理任务.
func OrphanSweep(svc *service.MaintenanceService, dryRun bool) scheduler.JobFunc {
	return func(ctx context.Context) error {
		_, err := svc.SweepOrphans(ctx, dryRun)
		return err
	}
}

// VoteReconcile 返回投票计数校对任务.
func VoteReconcile(svc *service.MaintenanceService, dryRun bool) scheduler.JobFunc {
	return func(ctx context.Context) error {
		_, err := svc.ReconcileVotes(ctx, dryRun)
		return err
	}
}
