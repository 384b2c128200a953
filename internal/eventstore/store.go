package eventstore

import (
	"context"
	"encoding/json"

	"groupreaper/internal/domain"
)

// 事件存储可过滤/排序的列。
const (
	FieldTimestamp = "timestamp"
	FieldEventID   = "event_id"
	FieldProjectID = "project_id"
	FieldGroupID   = "group_id"
)

// Store 抽象事件存储。事件存储只支持按条件查询，不支持 offset 分页。
type Store interface {
	GetEvents(ctx context.Context, filter Filter, opts QueryOptions) ([]domain.Event, error)
}

// Filter 限定查询范围。
type Filter struct {
	ProjectIDs []int64
	GroupIDs   []int64
	Conditions []Condition
}

// QueryOptions 控制排序和条数。OrderBy 形如 "-timestamp"。
type QueryOptions struct {
	OrderBy  []string
	Limit    int
	Referrer string
}

// Condition 是单个比较条件，或者当 Or 非空时表示一组 OR 条件。
// 多个顶层 Condition 之间为 AND。
type Condition struct {
	Field string
	Op    string
	Value any
	Or    []Condition
}

// Cond 构造比较条件。
func Cond(field, op string, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// AnyOf 构造 OR 条件组。
func AnyOf(conds ...Condition) Condition {
	return Condition{Or: conds}
}

// MarshalJSON 输出 [field, op, value]，OR 组输出嵌套数组。
func (c Condition) MarshalJSON() ([]byte, error) {
	if len(c.Or) > 0 {
		return json.Marshal(c.Or)
	}
	return json.Marshal([]any{c.Field, c.Op, c.Value})
}
