package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"groupreaper/internal/deletion"
	"groupreaper/internal/domain"
	"groupreaper/internal/eventstore"
	"groupreaper/internal/nodestore"
	"groupreaper/internal/schedule"
	"groupreaper/internal/similarity"
	"groupreaper/internal/store"
)

// Service 装配删除器和删除队列，提供定时任务和查询入口。
type Service struct {
	cfg      Config
	Deletion *deletion.GroupDeletion
	Manager  *schedule.Manager
	logger   *zap.Logger
}

// NewService 根据配置和已构建的存储创建 Service。
func NewService(cfg Config, db store.Store, events eventstore.Store, nodes nodestore.Store,
	index similarity.Index, logger *zap.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("必须提供关系存储")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	groups, err := deletion.NewGroupDeletion(db, events, nodes, index, deletion.Config{
		ChunkSize: cfg.Deletion.ChunkSize,
		SkipHooks: cfg.Deletion.SkipHookKinds(),
	}, logger.Named("deletion"))
	if err != nil {
		return nil, fmt.Errorf("创建分组删除器失败: %w", err)
	}
	manager := schedule.NewManager(db, schedule.Config{
		JobsPerRun:    cfg.Deletion.JobsPerRun,
		ChunksPerRun:  cfg.Deletion.ChunksPerRun,
		MaxAttempts:   cfg.Deletion.MaxAttempts,
		StuckAfter:    cfg.Deletion.StuckAfter(),
		RetryAttempts: cfg.Deletion.Retry.Attempts,
		RetryBackoff:  cfg.Deletion.Retry.Backoff(),
	}, logger.Named("schedule"))
	manager.Register(domain.KindGroup, groups)

	return &Service{cfg: cfg, Deletion: groups, Manager: manager, logger: logger}, nil
}

// RunPending 处理一轮到期的删除任务。
func (s *Service) RunPending(ctx context.Context) error {
	n, err := s.Manager.RunPending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("删除任务本轮已处理", zap.Int("jobs", n))
	}
	return nil
}

// Reattempt 释放卡住的删除任务。
func (s *Service) Reattempt(ctx context.Context) error {
	_, err := s.Manager.Reattempt(ctx)
	return err
}

// Job 查询删除任务状态。
func (s *Service) Job(ctx context.Context, guid string) (schedule.Job, error) {
	return s.Manager.Get(ctx, guid)
}
