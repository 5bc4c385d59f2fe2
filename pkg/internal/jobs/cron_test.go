package jobs_test

import (
	"testing"

	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/jobs"
	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func TestRegisterCronJobs(t *testing.T) {
	svc := service.New(service.Options{}).Maintenance
	cfg := configs.Default().Jobs

	s := newScheduler(t)
	if err := jobs.RegisterCronJobs(s, svc, cfg); err != nil {
		t.Fatalf("register: %v", err)
	}

	infos := s.GetJobInfos()
	if len(infos) != 2 {
		t.Fatalf("expected 2 jobs, got %+v", infos)
	}

	if infos[0].Name != jobs.JobOrphanMediaSweep || infos[1].Name != jobs.JobVoteReconcile {
		t.Errorf("unexpected jobs %s, %s", infos[0].Name, infos[1].Name)
	}

	if infos[0].CronExpr != configs.DefaultOrphanSweepCron {
		t.Errorf("cron = %s", infos[0].CronExpr)
	}
}

func TestRegisterCronJobsHonorsSwitches(t *testing.T) {
	svc := service.New(service.Options{}).Maintenance

	cfg := configs.Default().Jobs
	cfg.VoteReconcile.Enabled = false

	s := newScheduler(t)
	if err := jobs.RegisterCronJobs(s, svc, cfg); err != nil {
		t.Fatalf("register: %v", err)
	}

	if n := len(s.GetJobInfos()); n != 1 {
		t.Errorf("expected 1 job, got %d", n)
	}

	cfg.Enabled = false

	s = newScheduler(t)
	if err := jobs.RegisterCronJobs(s, svc, cfg); err != nil {
		t.Fatalf("register: %v", err)
	}

	if n := len(s.GetJobInfos()); n != 0 {
		t.Errorf("expected no jobs, got %d", n)
	}

	if err := jobs.RegisterCronJobs(nil, svc, cfg); err == nil {
		t.Error("nil scheduler accepted")
	}
}
