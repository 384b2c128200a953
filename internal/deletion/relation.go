package deletion

import (
	"errors"
	"fmt"
	"sort"

	"groupreaper/internal/domain"
	"groupreaper/internal/store"
)

// ErrInvalidRelation 表示关系的过滤条件没有限定到唯一的根实体，属于编码错误，不可重试。
var ErrInvalidRelation = errors.New("关系过滤条件未限定到唯一根实体")

// Filter 是字段到标量值的映射，多个字段之间为 AND。
type Filter map[string]any

// Int64 读取整型字段。
func (f Filter) Int64(key string) (int64, bool) {
	v, ok := f[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// Conds 转成关系存储的等值条件，按字段名排序保证生成的 SQL 稳定。
func (f Filter) Conds() []store.Cond {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]store.Cond, 0, len(keys))
	for _, k := range keys {
		conds = append(conds, store.Eq(k, f[k]))
	}
	return conds
}

// Relation 描述依赖图中的一条边：某个存储中匹配 Filter 的所有记录，由 Task 分块删除。
type Relation struct {
	Kind   domain.EntityKind
	Filter Filter
	Task   Task
}

// Validate 校验过滤条件只覆盖 root 的后代。
func (r Relation) Validate(root domain.Group) error {
	if r.Task == nil {
		return fmt.Errorf("%w: %s 未配置删除任务", ErrInvalidRelation, r.Kind)
	}
	groupID, ok := r.Filter.Int64(domain.FieldGroupID)
	if !ok || groupID != root.ID {
		return fmt.Errorf("%w: %s 的 group_id 必须为 %d", ErrInvalidRelation, r.Kind, root.ID)
	}
	if _, has := r.Filter[domain.FieldProjectID]; has {
		projectID, ok := r.Filter.Int64(domain.FieldProjectID)
		if !ok || projectID != root.ProjectID {
			return fmt.Errorf("%w: %s 的 project_id 必须为 %d", ErrInvalidRelation, r.Kind, root.ProjectID)
		}
	}
	for k, v := range r.Filter {
		if err := store.ValidIdentifier(k); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRelation, err)
		}
		switch v.(type) {
		case int64, int, string, bool:
		default:
			return fmt.Errorf("%w: %s.%s 不是标量 (%T)", ErrInvalidRelation, r.Kind, k, v)
		}
	}
	return nil
}
