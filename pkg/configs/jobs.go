package configs

import "github.com/spf13/viper"

const (
	DefaultOrphanSweepCron   = "0 */6 * * *" // 每 6 小时清理一次孤立图片
	DefaultVoteReconcileCron = "30 3 * * *"  // 每天 03:30 校对票数
)

// JobsConfig 定时任务配置.
type JobsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	OrphanSweep   CronJobConfig `mapstructure:"orphan_sweep"`
	VoteReconcile CronJobConfig `mapstructure:"vote_reconcile"`
}

// CronJobConfig 单个定时任务.
type CronJobConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
	// DryRun 只记录不修改
	DryRun bool `mapstructure:"dry_run"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.orphan_sweep.enabled", true)
	v.SetDefault("jobs.orphan_sweep.cron", DefaultOrphanSweepCron)
	v.SetDefault("jobs.orphan_sweep.dry_run", false)
	v.SetDefault("jobs.vote_reconcile.enabled", true)
	v.SetDefault("jobs.vote_reconcile.cron", DefaultVoteReconcileCron)
	v.SetDefault("jobs.vote_reconcile.dry_run", false)
}
