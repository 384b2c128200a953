package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groupreaper/internal/deletion"
	"groupreaper/internal/domain"
	"groupreaper/internal/metrics"
	"groupreaper/internal/store"
	"groupreaper/internal/util"
)

// ErrNotFound 表示任务不存在，删除完成的任务会从队列中移除。
var ErrNotFound = errors.New("删除任务不存在")

// Runner 推进某一类根实体的删除，每次调用执行一个单位的工作。
type Runner interface {
	Advance(ctx context.Context, objectID int64, p deletion.Progress) (deletion.Progress, error)
}

// pendingMarker 在排队时把根实体标记为待删除，可选实现。
type pendingMarker interface {
	MarkPending(ctx context.Context, objectID int64) error
}

// Config 控制队列调度。
type Config struct {
	JobsPerRun    int
	ChunksPerRun  int
	MaxAttempts   int
	StuckAfter    time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	// RescheduleDelay 是首次失败后的重排延迟，之后按 2 倍递增，最多 MaxRescheduleDelay。
	RescheduleDelay    time.Duration
	MaxRescheduleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.JobsPerRun <= 0 {
		c.JobsPerRun = 10
	}
	if c.ChunksPerRun <= 0 {
		c.ChunksPerRun = 100
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.StuckAfter <= 0 {
		c.StuckAfter = 30 * time.Minute
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	if c.RescheduleDelay <= 0 {
		c.RescheduleDelay = time.Minute
	}
	if c.MaxRescheduleDelay <= 0 {
		c.MaxRescheduleDelay = time.Hour
	}
	return c
}

// Manager 维护删除队列，反复调用 Runner 直到根实体删除完成。
// 多个 Manager 可以共享一张表，认领通过条件更新完成。
type Manager struct {
	db      store.Store
	cfg     Config
	runners map[domain.EntityKind]Runner
	logger  *zap.Logger
	now     func() time.Time
}

func NewManager(db store.Store, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		db:      db,
		cfg:     cfg.withDefaults(),
		runners: make(map[domain.EntityKind]Runner),
		logger:  logger,
		now:     time.Now,
	}
}

// Register 注册某类根实体的 Runner。
func (m *Manager) Register(kind domain.EntityKind, runner Runner) {
	m.runners[kind] = runner
}

// Schedule 把根实体排入队列。同一对象已有未失败的任务时直接返回该任务。
func (m *Manager) Schedule(ctx context.Context, kind domain.EntityKind, objectID, actorID int64, delay time.Duration) (Job, error) {
	runner, ok := m.runners[kind]
	if !ok {
		return Job{}, fmt.Errorf("未注册的删除类型 %s", kind)
	}
	if job, ok, err := m.findLive(ctx, kind, objectID); err != nil || ok {
		return job, err
	}

	if pm, ok := runner.(pendingMarker); ok {
		if err := pm.MarkPending(ctx, objectID); err != nil {
			return Job{}, err
		}
	}
	now := m.now()
	job := Job{
		GUID:          uuid.NewString(),
		Kind:          kind,
		ObjectID:      objectID,
		ActorID:       actorID,
		DateAdded:     time.Unix(now.Unix(), 0).UTC(),
		DateScheduled: time.Unix(now.Add(delay).Unix(), 0).UTC(),
	}
	var err error
	job.ID, err = m.db.Insert(ctx, Table, map[string]any{
		"guid":           job.GUID,
		"root_kind":      string(kind),
		"object_id":      objectID,
		"actor_id":       actorID,
		"date_added":     job.DateAdded.Unix(),
		"date_scheduled": job.DateScheduled.Unix(),
		"date_claimed":   int64(0),
		"in_progress":    false,
		"failed":         false,
		"attempts":       0,
		"progress":       "",
		"last_error":     "",
	})
	if err != nil {
		// 并发排队时唯一索引拒绝重复写入，返回先写入的任务
		if live, ok, ferr := m.findLive(ctx, kind, objectID); ferr == nil && ok {
			return live, nil
		}
		return Job{}, fmt.Errorf("写入删除任务失败: %w", err)
	}
	m.logger.Info("删除任务已排队",
		zap.String("guid", job.GUID),
		zap.String("kind", string(kind)),
		zap.Int64("object_id", objectID),
		zap.Duration("delay", delay),
	)
	return job, nil
}

func (m *Manager) findLive(ctx context.Context, kind domain.EntityKind, objectID int64) (Job, bool, error) {
	rows, err := m.db.Filter(ctx, store.Query{
		Table:   Table,
		Columns: jobColumns,
		Where: []store.Cond{
			store.Eq("root_kind", string(kind)),
			store.Eq("object_id", objectID),
			store.Eq("failed", false),
		},
		OrderBy: []string{"id"},
		Limit:   1,
	})
	if err != nil {
		return Job{}, false, fmt.Errorf("查询删除任务失败: %w", err)
	}
	if len(rows) == 0 {
		return Job{}, false, nil
	}
	job, err := jobFromRow(rows[0])
	return job, err == nil, err
}

// Get 按 guid 查询任务。
func (m *Manager) Get(ctx context.Context, guid string) (Job, error) {
	rows, err := m.db.Filter(ctx, store.Query{
		Table:   Table,
		Columns: jobColumns,
		Where:   []store.Cond{store.Eq("guid", guid)},
		Limit:   1,
	})
	if err != nil {
		return Job{}, fmt.Errorf("查询删除任务失败: %w", err)
	}
	if len(rows) == 0 {
		return Job{}, ErrNotFound
	}
	return jobFromRow(rows[0])
}

// RunPending 认领到期的任务并推进，返回本轮处理的任务数。
func (m *Manager) RunPending(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := m.db.Filter(ctx, store.Query{
		Table:   Table,
		Columns: jobColumns,
		Where: []store.Cond{
			store.Eq("in_progress", false),
			store.Eq("failed", false),
			store.Lte("date_scheduled", m.now().Unix()),
		},
		OrderBy: []string{"date_scheduled", "id"},
		Limit:   m.cfg.JobsPerRun,
	})
	if err != nil {
		return 0, fmt.Errorf("查询到期任务失败: %w", err)
	}

	processed := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		job, err := jobFromRow(row)
		if err != nil {
			m.logger.Error("解析删除任务失败", zap.Error(err))
			continue
		}
		claimed, err := m.claim(ctx, job)
		if err != nil {
			return processed, err
		}
		if !claimed {
			continue
		}
		processed++
		m.process(ctx, job)
	}
	return processed, nil
}

func (m *Manager) claim(ctx context.Context, job Job) (bool, error) {
	n, err := m.db.BulkUpdate(ctx, Table,
		[]store.Cond{
			store.Eq("id", job.ID),
			store.Eq("in_progress", false),
			store.Eq("failed", false),
		},
		map[string]any{"in_progress": true, "date_claimed": m.now().Unix()})
	if err != nil {
		return false, fmt.Errorf("认领删除任务失败: %w", err)
	}
	return n == 1, nil
}

func (m *Manager) process(ctx context.Context, job Job) {
	log := m.logger.With(
		zap.String("guid", job.GUID),
		zap.String("kind", string(job.Kind)),
		zap.Int64("object_id", job.ObjectID),
	)
	// 释放认领不受调用方取消影响
	bg := context.WithoutCancel(ctx)

	runner, ok := m.runners[job.Kind]
	if !ok {
		m.fail(bg, log, job, job.Progress, fmt.Errorf("%w: 未注册的删除类型 %s", deletion.ErrInvalidRelation, job.Kind))
		return
	}

	p := job.Progress
	for i := 0; i < m.cfg.ChunksPerRun; i++ {
		if ctx.Err() != nil {
			break
		}
		var next deletion.Progress
		err := util.RetryIf(ctx, m.cfg.RetryAttempts, m.cfg.RetryBackoff, deletion.IsFatal, func() error {
			var advErr error
			next, advErr = runner.Advance(ctx, job.ObjectID, p)
			return advErr
		})
		if err != nil {
			if ctx.Err() != nil {
				// 取消不算失败，保留进度下次继续
				if rerr := m.release(bg, job.ID, p); rerr != nil {
					log.Error("释放删除任务失败", zap.Error(rerr))
					return
				}
				log.Info("删除任务被取消，已释放", zap.String("phase", string(p.Phase)), zap.Int("relation", p.Relation))
				return
			}
			m.fail(bg, log, job, p, err)
			return
		}
		p = next
		if p.Done() {
			if _, err := m.db.Delete(bg, Table, []store.Cond{store.Eq("id", job.ID)}); err != nil {
				log.Error("移除已完成任务失败", zap.Error(err))
				if rerr := m.release(bg, job.ID, p); rerr != nil {
					log.Error("释放删除任务失败", zap.Error(rerr))
				}
				return
			}
			log.Info("删除任务完成", zap.Int64("deleted", p.Deleted))
			return
		}
		if err := m.saveProgress(bg, job.ID, p); err != nil {
			log.Error("保存进度失败", zap.Error(err))
			if rerr := m.release(bg, job.ID, p); rerr != nil {
				log.Error("释放删除任务失败", zap.Error(rerr))
			}
			return
		}
	}
	if err := m.release(bg, job.ID, p); err != nil {
		log.Error("释放删除任务失败", zap.Error(err))
		return
	}
	log.Debug("删除任务本轮结束", zap.String("phase", string(p.Phase)), zap.Int("relation", p.Relation))
}

func (m *Manager) saveProgress(ctx context.Context, id int64, p deletion.Progress) error {
	raw, err := encodeProgress(p)
	if err != nil {
		return err
	}
	_, err = m.db.BulkUpdate(ctx, Table, []store.Cond{store.Eq("id", id)}, map[string]any{"progress": raw})
	return err
}

func (m *Manager) release(ctx context.Context, id int64, p deletion.Progress) error {
	raw, err := encodeProgress(p)
	if err != nil {
		return err
	}
	_, err = m.db.BulkUpdate(ctx, Table, []store.Cond{store.Eq("id", id)},
		map[string]any{"progress": raw, "in_progress": false})
	return err
}

func (m *Manager) fail(ctx context.Context, log *zap.Logger, job Job, p deletion.Progress, cause error) {
	metrics.RunErrors.WithLabelValues(string(job.Kind)).Inc()
	attempts := job.Attempts + 1
	raw, err := encodeProgress(p)
	if err != nil {
		log.Error("编码进度失败", zap.Error(err))
		raw = ""
	}
	values := map[string]any{
		"in_progress": false,
		"attempts":    attempts,
		"progress":    raw,
		"last_error":  cause.Error(),
	}
	if deletion.IsFatal(cause) || attempts >= m.cfg.MaxAttempts {
		values["failed"] = true
		log.Error("删除任务失败，不再重试", zap.Int("attempts", attempts), zap.Error(cause))
	} else {
		delay := m.rescheduleDelay(attempts)
		values["date_scheduled"] = m.now().Add(delay).Unix()
		log.Warn("删除任务失败，稍后重试", zap.Int("attempts", attempts), zap.Duration("delay", delay), zap.Error(cause))
	}
	if _, err := m.db.BulkUpdate(ctx, Table, []store.Cond{store.Eq("id", job.ID)}, values); err != nil {
		log.Error("更新失败任务失败", zap.Error(err))
	}
}

func (m *Manager) rescheduleDelay(attempts int) time.Duration {
	delay := m.cfg.RescheduleDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= m.cfg.MaxRescheduleDelay {
			return m.cfg.MaxRescheduleDelay
		}
	}
	return delay
}

// Reattempt 释放认领超过 StuckAfter 仍未结束的任务，通常是 worker 崩溃留下的。
func (m *Manager) Reattempt(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-m.cfg.StuckAfter).Unix()
	n, err := m.db.BulkUpdate(ctx, Table,
		[]store.Cond{
			store.Eq("in_progress", true),
			store.Eq("failed", false),
			store.Lt("date_claimed", cutoff),
		},
		map[string]any{"in_progress": false})
	if err != nil {
		return 0, fmt.Errorf("释放超时任务失败: %w", err)
	}
	if n > 0 {
		m.logger.Warn("已释放超时的删除任务", zap.Int64("count", n))
	}
	return n, nil
}
