package ioc

import (
	"go.uber.org/zap"

	"groupreaper/internal/app"
	"groupreaper/internal/job"
)

// InitScheduler 构建定时任务调度器：按 job_cron 推进删除队列，按 reattempt_cron 释放卡住的任务。
func InitScheduler(cfg app.Config, svc *app.Service, logger *zap.Logger) (*job.Scheduler, error) {
	s := job.NewScheduler(logger.Named("job"),
		job.Task{Name: "run_pending_deletions", Spec: cfg.Deletion.JobCron, Run: svc.RunPending},
		job.Task{Name: "reattempt_deletions", Spec: cfg.Deletion.ReattemptCron, Run: svc.Reattempt},
	)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
