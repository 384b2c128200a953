package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Op 是过滤条件的比较运算符。
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "<>"
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpIn  Op = "IN"
)

// ErrInvalidIdentifier 表示表名或列名不合法。
var ErrInvalidIdentifier = errors.New("非法的表名或列名")

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Cond 是一条过滤条件，多条之间为 AND。
type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Cond  { return Cond{Column: column, Op: OpEq, Value: value} }
func Ne(column string, value any) Cond  { return Cond{Column: column, Op: OpNe, Value: value} }
func Lt(column string, value any) Cond  { return Cond{Column: column, Op: OpLt, Value: value} }
func Lte(column string, value any) Cond { return Cond{Column: column, Op: OpLte, Value: value} }
func Gt(column string, value any) Cond  { return Cond{Column: column, Op: OpGt, Value: value} }
func Gte(column string, value any) Cond { return Cond{Column: column, Op: OpGte, Value: value} }

// In 构造 IN 条件，空列表不匹配任何行。
func In[T any](column string, values []T) Cond {
	vals := make([]any, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
	}
	return Cond{Column: column, Op: OpIn, Value: vals}
}

// Query 描述一次 Filter 查询。
type Query struct {
	Table   string
	Columns []string
	Where   []Cond
	// OrderBy 形如 "id" 或 "-id"（降序）。
	OrderBy []string
	Limit   int
}

// Store 是通用关系存储接口，所有模型关系和状态迁移都通过它完成。
type Store interface {
	Filter(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, values map[string]any) (int64, error)
	Delete(ctx context.Context, table string, where []Cond) (int64, error)
	BulkUpdate(ctx context.Context, table string, where []Cond, values map[string]any) (int64, error)
}

// ValidIdentifier 校验表名/列名，所有标识符都会直接拼进 SQL。
func ValidIdentifier(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ParseOrder 把 "-col" 解析为 (col, true)。
func ParseOrder(term string) (string, bool) {
	if strings.HasPrefix(term, "-") {
		return term[1:], true
	}
	return term, false
}
