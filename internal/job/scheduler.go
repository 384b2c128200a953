package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 是一个按 cron 表达式执行的后台任务。
type Task struct {
	Name string
	Spec string
	Run  func(context.Context) error
}

type entry struct {
	Task
	mu      sync.Mutex
	running bool
}

// Scheduler 负责基于 cron 表达式执行后台任务，同一任务上一轮未结束时跳过本轮。
type Scheduler struct {
	entries []*entry
	logger  *zap.Logger
	cron    *cron.Cron
	parent  context.Context
}

// NewScheduler 构建调度器。
func NewScheduler(logger *zap.Logger, tasks ...Task) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{logger: logger}
	for _, t := range tasks {
		t.Spec = strings.TrimSpace(t.Spec)
		s.entries = append(s.entries, &entry{Task: t})
	}
	return s
}

// Validate 校验所有 cron 表达式。
func (s *Scheduler) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for _, e := range s.entries {
		if _, err := parser.Parse(e.Spec); err != nil {
			return fmt.Errorf("任务 %s 的 cron 表达式 %q 非法: %w", e.Name, e.Spec, err)
		}
	}
	return nil
}

// Start 启动调度器，返回用于停止任务的函数。
func (s *Scheduler) Start(parent context.Context) context.CancelFunc {
	if s == nil {
		return func() {}
	}
	s.parent = parent
	c := cron.New()
	ids := make([]cron.EntryID, 0, len(s.entries))
	for _, e := range s.entries {
		e := e
		id, err := c.AddFunc(e.Spec, func() { s.runOnce(e) })
		if err != nil {
			s.logger.Error("failed to register cron job", zap.String("job", e.Name), zap.String("cron", e.Spec), zap.Error(err))
			return func() {}
		}
		ids = append(ids, id)
	}
	s.cron = c
	c.Start()
	for i, id := range ids {
		s.logger.Info("cron job registered",
			zap.String("job", s.entries[i].Name),
			zap.String("cron", s.entries[i].Spec),
			zap.Time("next", c.Entry(id).Next))
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ctx := s.cron.Stop()
			<-ctx.Done()
			s.logger.Info("job scheduler stopped")
		})
	}

	go func() {
		<-parent.Done()
		stop()
	}()

	return stop
}

func (s *Scheduler) runOnce(e *entry) {
	if e.Run == nil {
		s.logger.Warn("job function not configured", zap.String("job", e.Name))
		return
	}
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		s.logger.Warn("previous run still in progress, skip current schedule", zap.String("job", e.Name))
		return
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	runCtx := context.Background()
	if s.parent != nil {
		if s.parent.Err() != nil {
			s.logger.Info("scheduler context cancelled, skip run", zap.String("job", e.Name))
			return
		}
		runCtx = s.parent
	}
	start := time.Now()
	err := e.Run(runCtx)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", e.Name), zap.Duration("duration", elapsed), zap.Error(err))
		return
	}
	s.logger.Debug("scheduled job completed", zap.String("job", e.Name), zap.Duration("duration", elapsed))
}
