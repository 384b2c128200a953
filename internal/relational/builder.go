package relational

import (
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"groupreaper/internal/store"
)

// ErrUnscopedWrite 拒绝没有任何条件的 DELETE/UPDATE。
var ErrUnscopedWrite = errors.New("删除或更新语句缺少过滤条件")

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

func (d dialect) statements() sq.StatementBuilderType {
	if d == dialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// predicate 把 store.Cond 转成 squirrel 条件，空 IN 列表渲染为 (1=0)。
func predicate(c store.Cond) (sq.Sqlizer, error) {
	if err := store.ValidIdentifier(c.Column); err != nil {
		return nil, err
	}
	switch c.Op {
	case store.OpEq:
		return sq.Eq{c.Column: c.Value}, nil
	case store.OpNe:
		return sq.NotEq{c.Column: c.Value}, nil
	case store.OpLt:
		return sq.Lt{c.Column: c.Value}, nil
	case store.OpLte:
		return sq.LtOrEq{c.Column: c.Value}, nil
	case store.OpGt:
		return sq.Gt{c.Column: c.Value}, nil
	case store.OpGte:
		return sq.GtOrEq{c.Column: c.Value}, nil
	case store.OpIn:
		values, ok := c.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("IN 条件需要 []any，列 %s 得到 %T", c.Column, c.Value)
		}
		return sq.Eq{c.Column: values}, nil
	default:
		return nil, fmt.Errorf("未知运算符 %q", c.Op)
	}
}

func predicates(conds []store.Cond) ([]sq.Sqlizer, error) {
	out := make([]sq.Sqlizer, 0, len(conds))
	for _, c := range conds {
		p, err := predicate(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func buildSelect(d dialect, q store.Query) (string, []any, error) {
	if err := store.ValidIdentifier(q.Table); err != nil {
		return "", nil, err
	}
	cols := []string{"*"}
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if err := store.ValidIdentifier(c); err != nil {
				return "", nil, err
			}
		}
		cols = q.Columns
	}
	preds, err := predicates(q.Where)
	if err != nil {
		return "", nil, err
	}

	sb := d.statements().Select(cols...).From(q.Table)
	for _, p := range preds {
		sb = sb.Where(p)
	}
	for _, term := range q.OrderBy {
		col, desc := store.ParseOrder(term)
		if err := store.ValidIdentifier(col); err != nil {
			return "", nil, err
		}
		if desc {
			col += " DESC"
		}
		sb = sb.OrderBy(col)
	}
	if q.Limit > 0 {
		sb = sb.Limit(uint64(q.Limit))
	}
	return sb.ToSql()
}

func buildInsert(d dialect, table string, values map[string]any) (string, []any, error) {
	if err := store.ValidIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("插入 %s 缺少字段", table)
	}
	cols := sortedKeys(values)
	args := make([]any, len(cols))
	for i, c := range cols {
		if err := store.ValidIdentifier(c); err != nil {
			return "", nil, err
		}
		args[i] = values[c]
	}
	ib := d.statements().Insert(table).Columns(cols...).Values(args...)
	if d == dialectPostgres {
		ib = ib.Suffix("RETURNING id")
	}
	return ib.ToSql()
}

func buildDelete(d dialect, table string, where []store.Cond) (string, []any, error) {
	if err := store.ValidIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(where) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrUnscopedWrite, table)
	}
	preds, err := predicates(where)
	if err != nil {
		return "", nil, err
	}
	db := d.statements().Delete(table)
	for _, p := range preds {
		db = db.Where(p)
	}
	return db.ToSql()
}

func buildUpdate(d dialect, table string, where []store.Cond, values map[string]any) (string, []any, error) {
	if err := store.ValidIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(where) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrUnscopedWrite, table)
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("更新 %s 缺少字段", table)
	}
	for c := range values {
		if err := store.ValidIdentifier(c); err != nil {
			return "", nil, err
		}
	}
	preds, err := predicates(where)
	if err != nil {
		return "", nil, err
	}
	// SetMap 按列名排序，生成的语句稳定
	ub := d.statements().Update(table).SetMap(values)
	for _, p := range preds {
		ub = ub.Where(p)
	}
	return ub.ToSql()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
