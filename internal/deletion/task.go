package deletion

import (
	"context"
	"errors"
	"time"
)

// DefaultChunkSize 是单次分块最多删除的记录数。
const DefaultChunkSize = 10000

// ErrCursorRegression 表示事件存储返回了不在游标之前的事件，继续执行可能无法终止。
var ErrCursorRegression = errors.New("事件游标未前进")

// IsFatal 判断错误是否不可重试。
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidRelation) || errors.Is(err, ErrCursorRegression)
}

// Cursor 是事件分页的续点，按 (timestamp, event_id) 降序推进。
type Cursor struct {
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"event_id"`
}

// Less 比较复合键 (timestamp, event_id)。
func (c Cursor) Less(o Cursor) bool {
	if !c.Timestamp.Equal(o.Timestamp) {
		return c.Timestamp.Before(o.Timestamp)
	}
	return c.EventID < o.EventID
}

// ChunkResult 是一次分块的结果，HasMore 为 false 表示该关系已清空。
type ChunkResult struct {
	Deleted int
	Cursor  *Cursor
	HasMore bool
}

// Task 删除匹配 filter 的至多一个分块。同一个 cursor 重复调用是安全的。
type Task interface {
	Chunk(ctx context.Context, filter Filter, cursor *Cursor) (ChunkResult, error)
}
