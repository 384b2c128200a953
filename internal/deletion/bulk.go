package deletion

import (
	"context"
	"fmt"

	"groupreaper/internal/domain"
	"groupreaper/internal/store"
)

// BulkModelTask 按 id 分块删除关系表中的记录。已删除的行不会再被查到，所以不需要游标。
type BulkModelTask struct {
	db        store.Store
	table     string
	chunkSize int
}

var _ Task = (*BulkModelTask)(nil)

func NewBulkModelTask(db store.Store, kind domain.EntityKind, chunkSize int) (*BulkModelTask, error) {
	if err := store.ValidIdentifier(kind.Table()); err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &BulkModelTask{db: db, table: kind.Table(), chunkSize: chunkSize}, nil
}

func (t *BulkModelTask) Chunk(ctx context.Context, filter Filter, _ *Cursor) (ChunkResult, error) {
	where := filter.Conds()
	rows, err := t.db.Filter(ctx, store.Query{
		Table:   t.table,
		Columns: []string{domain.FieldID},
		Where:   where,
		OrderBy: []string{domain.FieldID},
		Limit:   t.chunkSize + 1,
	})
	if err != nil {
		return ChunkResult{}, fmt.Errorf("查询 %s 失败: %w", t.table, err)
	}
	if len(rows) == 0 {
		return ChunkResult{}, nil
	}
	hasMore := len(rows) > t.chunkSize
	if hasMore {
		rows = rows[:t.chunkSize]
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, err := row.Int64(domain.FieldID)
		if err != nil {
			return ChunkResult{}, fmt.Errorf("读取 %s.id 失败: %w", t.table, err)
		}
		ids = append(ids, id)
	}
	deleted, err := t.db.Delete(ctx, t.table, append(where, store.In(domain.FieldID, ids)))
	if err != nil {
		return ChunkResult{}, fmt.Errorf("删除 %s 失败: %w", t.table, err)
	}
	return ChunkResult{Deleted: int(deleted), HasMore: hasMore}, nil
}
