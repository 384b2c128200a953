package deletion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"groupreaper/internal/domain"
	"groupreaper/internal/eventstore"
	"groupreaper/internal/nodestore"
	"groupreaper/internal/store"
	"groupreaper/pkg/util"
)

const (
	eventReferrer = "deletions.group"
	// eventIDBatch 限制 IN 列表长度。
	eventIDBatch = 1000
)

// EventDataTask 删除分组在事件存储侧的数据：nodestore 中的事件正文，以及按事件关联的附件和用户反馈。
// 事件存储本身只追加，不支持 offset，所以用 (timestamp, event_id) 游标分页。
type EventDataTask struct {
	events    eventstore.Store
	nodes     nodestore.Store
	db        store.Store
	chunkSize int
	logger    *zap.Logger
}

var _ Task = (*EventDataTask)(nil)

func NewEventDataTask(events eventstore.Store, nodes nodestore.Store, db store.Store, chunkSize int, logger *zap.Logger) *EventDataTask {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventDataTask{events: events, nodes: nodes, db: db, chunkSize: chunkSize, logger: logger}
}

func (t *EventDataTask) Chunk(ctx context.Context, filter Filter, cursor *Cursor) (ChunkResult, error) {
	projectID, ok := filter.Int64(domain.FieldProjectID)
	if !ok {
		return ChunkResult{}, fmt.Errorf("%w: event_data 缺少 project_id", ErrInvalidRelation)
	}
	groupID, ok := filter.Int64(domain.FieldGroupID)
	if !ok {
		return ChunkResult{}, fmt.Errorf("%w: event_data 缺少 group_id", ErrInvalidRelation)
	}

	q := eventstore.Filter{ProjectIDs: []int64{projectID}, GroupIDs: []int64{groupID}}
	if cursor != nil {
		q.Conditions = []eventstore.Condition{
			eventstore.Cond(eventstore.FieldTimestamp, "<=", cursor.Timestamp),
			eventstore.AnyOf(
				eventstore.Cond(eventstore.FieldTimestamp, "<", cursor.Timestamp),
				eventstore.Cond(eventstore.FieldEventID, "<", cursor.EventID),
			),
		}
	}
	events, err := t.events.GetEvents(ctx, q, eventstore.QueryOptions{
		OrderBy:  []string{"-" + eventstore.FieldTimestamp, "-" + eventstore.FieldEventID},
		Limit:    t.chunkSize + 1,
		Referrer: eventReferrer,
	})
	if err != nil {
		return ChunkResult{}, fmt.Errorf("查询事件失败: %w", err)
	}
	if len(events) == 0 {
		return ChunkResult{}, nil
	}
	hasMore := len(events) > t.chunkSize
	if hasMore {
		events = events[:t.chunkSize]
	}

	var oldest *Cursor
	nodeIDs := make([]string, 0, len(events))
	eventIDs := make([]string, 0, len(events))
	for _, ev := range events {
		key := Cursor{Timestamp: ev.Timestamp, EventID: ev.EventID}
		if cursor != nil && !key.Less(*cursor) {
			return ChunkResult{}, fmt.Errorf("%w: 事件 %s 不早于游标 %s", ErrCursorRegression, ev.EventID, cursor.EventID)
		}
		if oldest == nil || key.Less(*oldest) {
			k := key
			oldest = &k
		}
		nodeIDs = append(nodeIDs, domain.GenerateNodeID(projectID, ev.EventID))
		eventIDs = append(eventIDs, ev.EventID)
	}

	if err := t.nodes.DeleteMulti(ctx, nodeIDs); err != nil {
		return ChunkResult{}, fmt.Errorf("删除事件正文失败: %w", err)
	}
	var related int64
	for _, batch := range util.Batch(eventIDs, eventIDBatch) {
		where := []store.Cond{
			store.Eq(domain.FieldProjectID, projectID),
			store.In(domain.FieldEventID, batch),
		}
		for _, kind := range []domain.EntityKind{domain.KindEventAttachment, domain.KindUserReport} {
			n, err := t.db.Delete(ctx, kind.Table(), where)
			if err != nil {
				return ChunkResult{}, fmt.Errorf("删除 %s 失败: %w", kind, err)
			}
			related += n
		}
	}
	t.logger.Debug("事件数据分块已删除",
		zap.Int64("group_id", groupID),
		zap.Int64("project_id", projectID),
		zap.Int("events", len(events)),
		zap.Int64("related_rows", related),
	)
	return ChunkResult{Deleted: len(events), Cursor: oldest, HasMore: hasMore}, nil
}
