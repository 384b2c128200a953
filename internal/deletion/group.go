package deletion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"groupreaper/internal/domain"
	"groupreaper/internal/eventstore"
	"groupreaper/internal/metrics"
	"groupreaper/internal/nodestore"
	"groupreaper/internal/similarity"
	"groupreaper/internal/store"
)

// GroupChildKinds 是分组的子模型，按删除顺序排列。
// group_hash 优先；event 行最耗时放在最后，重试时先快速扫过廉价的关系。
var GroupChildKinds = []domain.EntityKind{
	domain.KindGroupHash,
	domain.KindGroupAssignee,
	domain.KindGroupCommitResolution,
	domain.KindGroupLink,
	domain.KindGroupBookmark,
	domain.KindGroupMeta,
	domain.KindGroupEnvironment,
	domain.KindGroupRelease,
	domain.KindGroupRedirect,
	domain.KindGroupResolution,
	domain.KindGroupRuleStatus,
	domain.KindGroupSeen,
	domain.KindGroupShare,
	domain.KindGroupSnooze,
	domain.KindGroupEmailThread,
	domain.KindGroupSubscription,
	domain.KindUserReport,
	domain.KindIncidentGroup,
	domain.KindEvent,
}

// Config 控制分组删除。
type Config struct {
	ChunkSize int
	// SkipHooks 中的类型不执行删除前钩子，目前只有 similarity。
	SkipHooks []domain.EntityKind
	// ChildKinds 为空时使用 GroupChildKinds。event_data 总是追加在最后。
	ChildKinds []domain.EntityKind
}

type child struct {
	kind domain.EntityKind
	task Task
	// withProject 表示过滤条件还需要 project_id。
	withProject bool
}

// GroupDeletion 编排一个分组的级联删除。它自身不保存进度，进度由调用方通过 Progress 传入传出。
type GroupDeletion struct {
	db       store.Store
	index    similarity.Index
	skip     map[domain.EntityKind]struct{}
	children []child
	logger   *zap.Logger
}

// NewGroupDeletion 构建删除器，子关系注册表在这里一次性解析和校验。
func NewGroupDeletion(db store.Store, events eventstore.Store, nodes nodestore.Store, index similarity.Index,
	cfg Config, logger *zap.Logger) (*GroupDeletion, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if index == nil {
		index = similarity.Noop{}
	}
	kinds := cfg.ChildKinds
	if len(kinds) == 0 {
		kinds = GroupChildKinds
	}
	children := make([]child, 0, len(kinds)+1)
	for _, kind := range kinds {
		if kind == domain.KindGroup || kind == domain.KindEventData || kind == domain.KindSimilarity {
			return nil, fmt.Errorf("%w: %s 不能作为分组子模型", ErrInvalidRelation, kind)
		}
		task, err := NewBulkModelTask(db, kind, cfg.ChunkSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRelation, err)
		}
		children = append(children, child{kind: kind, task: task})
	}
	children = append(children, child{
		kind:        domain.KindEventData,
		task:        NewEventDataTask(events, nodes, db, cfg.ChunkSize, logger),
		withProject: true,
	})

	skip := make(map[domain.EntityKind]struct{}, len(cfg.SkipHooks))
	for _, k := range cfg.SkipHooks {
		skip[k] = struct{}{}
	}
	return &GroupDeletion{db: db, index: index, skip: skip, children: children, logger: logger}, nil
}

// ChildRelations 返回 group 的子关系，顺序固定，event_data 在最后。
func (d *GroupDeletion) ChildRelations(group domain.Group) []Relation {
	relations := make([]Relation, 0, len(d.children))
	for _, c := range d.children {
		filter := Filter{domain.FieldGroupID: group.ID}
		if c.withProject {
			filter[domain.FieldProjectID] = group.ProjectID
		}
		relations = append(relations, Relation{Kind: c.kind, Filter: filter, Task: c.task})
	}
	return relations
}

// MarkInProgress 把分组批量置为删除中，已经是该状态的行不更新。
func (d *GroupDeletion) MarkInProgress(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := d.db.BulkUpdate(ctx, domain.KindGroup.Table(),
		[]store.Cond{
			store.In(domain.FieldID, ids),
			store.Ne(domain.FieldStatus, int(domain.GroupStatusDeletionInProgress)),
		},
		map[string]any{domain.FieldStatus: int(domain.GroupStatusDeletionInProgress)})
	if err != nil {
		return 0, fmt.Errorf("标记删除中失败: %w", err)
	}
	return n, nil
}

// MarkPending 在排入删除队列时把分组置为待删除。
func (d *GroupDeletion) MarkPending(ctx context.Context, id int64) error {
	_, err := d.db.BulkUpdate(ctx, domain.KindGroup.Table(),
		[]store.Cond{
			store.Eq(domain.FieldID, id),
			store.Ne(domain.FieldStatus, int(domain.GroupStatusPendingDeletion)),
			store.Ne(domain.FieldStatus, int(domain.GroupStatusDeletionInProgress)),
		},
		map[string]any{domain.FieldStatus: int(domain.GroupStatusPendingDeletion)})
	if err != nil {
		return fmt.Errorf("标记待删除失败: %w", err)
	}
	return nil
}

// DeleteInstance 执行删除前钩子后删除根行。钩子失败时根行保留。
func (d *GroupDeletion) DeleteInstance(ctx context.Context, group domain.Group) error {
	if _, skipped := d.skip[domain.KindSimilarity]; !skipped {
		if err := d.index.Delete(ctx, group.ProjectID, group.ID); err != nil {
			return fmt.Errorf("删除前钩子失败: %w", err)
		}
	}
	n, err := d.db.Delete(ctx, domain.KindGroup.Table(), []store.Cond{store.Eq(domain.FieldID, group.ID)})
	if err != nil {
		return fmt.Errorf("删除分组失败: %w", err)
	}
	d.logger.Info("对象删除完成",
		zap.String("model", string(domain.KindGroup)),
		zap.Int64("group_id", group.ID),
		zap.Int64("project_id", group.ProjectID),
		zap.Int64("deleted", n),
	)
	return nil
}

// Load 读取根实体，不存在时返回 false。
func (d *GroupDeletion) Load(ctx context.Context, id int64) (domain.Group, bool, error) {
	rows, err := d.db.Filter(ctx, store.Query{
		Table:   domain.KindGroup.Table(),
		Columns: []string{domain.FieldID, domain.FieldProjectID, domain.FieldStatus, "title"},
		Where:   []store.Cond{store.Eq(domain.FieldID, id)},
		Limit:   1,
	})
	if err != nil {
		return domain.Group{}, false, fmt.Errorf("查询分组失败: %w", err)
	}
	if len(rows) == 0 {
		return domain.Group{}, false, nil
	}
	row := rows[0]
	g := domain.Group{ID: id, Title: row.String("title")}
	if g.ProjectID, err = row.Int64(domain.FieldProjectID); err != nil {
		return domain.Group{}, false, fmt.Errorf("读取分组 project_id 失败: %w", err)
	}
	status, err := row.Int64(domain.FieldStatus)
	if err != nil {
		return domain.Group{}, false, fmt.Errorf("读取分组 status 失败: %w", err)
	}
	g.Status = domain.GroupStatus(status)
	return g, true, nil
}

// Advance 执行一个单位的工作并返回新的进度。出错时返回原进度，调用方可以原样重试。
func (d *GroupDeletion) Advance(ctx context.Context, groupID int64, p Progress) (Progress, error) {
	if p.Phase == PhaseDone {
		return p, nil
	}
	group, ok, err := d.Load(ctx, groupID)
	if err != nil {
		return p, err
	}
	if !ok {
		return Progress{Phase: PhaseDone, Deleted: p.Deleted}, nil
	}

	switch p.Phase {
	case PhaseMark, "":
		if _, err := d.MarkInProgress(ctx, []int64{group.ID}); err != nil {
			return p, err
		}
		return Progress{Phase: PhaseDrain, Deleted: p.Deleted}, nil

	case PhaseDrain:
		relations := d.ChildRelations(group)
		if p.Relation < 0 || p.Relation >= len(relations) {
			return Progress{Phase: PhaseDelete, Deleted: p.Deleted}, nil
		}
		rel := relations[p.Relation]
		if err := rel.Validate(group); err != nil {
			return p, err
		}
		res, err := rel.Task.Chunk(ctx, rel.Filter, p.Cursor)
		if err != nil {
			return p, fmt.Errorf("删除关系 %s 失败: %w", rel.Kind, err)
		}
		metrics.ObserveChunk(string(rel.Kind), res.Deleted)
		d.logger.Debug("关系分块已删除",
			zap.Int64("group_id", group.ID),
			zap.String("relation", string(rel.Kind)),
			zap.Int("deleted", res.Deleted),
			zap.Bool("has_more", res.HasMore),
		)
		next := Progress{Phase: PhaseDrain, Relation: p.Relation, Deleted: p.Deleted + int64(res.Deleted)}
		if res.HasMore {
			next.Cursor = res.Cursor
			return next, nil
		}
		next.Relation++
		if next.Relation >= len(relations) {
			next.Phase = PhaseDelete
			next.Relation = 0
		}
		return next, nil

	case PhaseDelete:
		if err := d.DeleteInstance(ctx, group); err != nil {
			return p, err
		}
		return Progress{Phase: PhaseDone, Deleted: p.Deleted}, nil

	default:
		return p, fmt.Errorf("未知的删除阶段 %q", p.Phase)
	}
}
