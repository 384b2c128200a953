package eventstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"groupreaper/internal/domain"
)

// StaticStore 在内存中保存事件并按与远端相同的语义过滤、排序。
// 未配置事件存储地址时作为兜底实现，也用于测试。
type StaticStore struct {
	mu     sync.RWMutex
	events []domain.Event
}

// NewStaticStore 创建内存事件存储。
func NewStaticStore(events ...domain.Event) *StaticStore {
	s := &StaticStore{}
	s.Add(events...)
	return s
}

// Add 追加事件。
func (s *StaticStore) Add(events ...domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// GetEvents 实现 Store。
func (s *StaticStore) GetEvents(_ context.Context, filter Filter, opts QueryOptions) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Event
	for _, ev := range s.events {
		if len(filter.ProjectIDs) > 0 && !containsID(filter.ProjectIDs, ev.ProjectID) {
			continue
		}
		if len(filter.GroupIDs) > 0 && !containsID(filter.GroupIDs, ev.GroupID) {
			continue
		}
		ok, err := matchAll(ev, filter.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, ev)
		}
	}

	if len(opts.OrderBy) > 0 {
		var sortErr error
		sort.SliceStable(matched, func(i, j int) bool {
			for _, term := range opts.OrderBy {
				field := strings.TrimPrefix(term, "-")
				c, err := compareField(matched[i], field, fieldValue(matched[j], field))
				if err != nil {
					sortErr = err
					return false
				}
				if c == 0 {
					continue
				}
				if strings.HasPrefix(term, "-") {
					return c > 0
				}
				return c < 0
			}
			return false
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	out := make([]domain.Event, len(matched))
	copy(out, matched)
	return out, nil
}

func matchAll(ev domain.Event, conds []Condition) (bool, error) {
	for _, c := range conds {
		ok, err := match(ev, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(ev domain.Event, c Condition) (bool, error) {
	if len(c.Or) > 0 {
		for _, sub := range c.Or {
			ok, err := match(ev, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	cmp, err := compareField(ev, c.Field, c.Value)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case "=":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("不支持的运算符 %q", c.Op)
	}
}

func fieldValue(ev domain.Event, field string) any {
	switch field {
	case FieldTimestamp:
		return ev.Timestamp
	case FieldEventID:
		return ev.EventID
	case FieldProjectID:
		return ev.ProjectID
	case FieldGroupID:
		return ev.GroupID
	default:
		return nil
	}
}

// compareField 比较事件字段与给定值，返回 -1/0/1。
func compareField(ev domain.Event, field string, value any) (int, error) {
	switch field {
	case FieldTimestamp:
		ts, ok := value.(time.Time)
		if !ok {
			return 0, fmt.Errorf("timestamp 条件需要 time.Time，得到 %T", value)
		}
		return ev.Timestamp.Compare(ts), nil
	case FieldEventID:
		id, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("event_id 条件需要 string，得到 %T", value)
		}
		return strings.Compare(ev.EventID, id), nil
	case FieldProjectID, FieldGroupID:
		n, ok := value.(int64)
		if !ok {
			return 0, fmt.Errorf("%s 条件需要 int64，得到 %T", field, value)
		}
		own := ev.ProjectID
		if field == FieldGroupID {
			own = ev.GroupID
		}
		switch {
		case own < n:
			return -1, nil
		case own > n:
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("不支持的字段 %q", field)
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
