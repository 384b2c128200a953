package relational

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"groupreaper/internal/store"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite 基于 modernc.org/sqlite 实现 store.Store，用于单机部署和测试。
type SQLite struct {
	db *sql.DB
}

var _ store.Store = (*SQLite)(nil)

// OpenSQLite 打开数据库并设置 pragma，":memory:" 可用于测试。
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 失败: %w", err)
	}
	// SQLite 只有一个写者；内存库每个连接都是独立的库。
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite 无法连通: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("执行 %q 失败: %w", pragma, err)
		}
	}
	return &SQLite{db: db}, nil
}

// EnsureSchema 执行内置建表语句，可重复执行。
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	for _, raw := range strings.Split(sqliteSchema, ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &QueryError{Query: stmt, Err: err}
		}
	}
	return nil
}

// Close 关闭数据库。
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Filter(ctx context.Context, q store.Query) ([]store.Row, error) {
	query, args, err := buildSelect(dialectSQLite, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	var result []store.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		row := make(store.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return result, nil
}

func (s *SQLite) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	query, args, err := buildInsert(dialectSQLite, table, values)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &QueryError{Query: query, Err: err}
	}
	return res.LastInsertId()
}

func (s *SQLite) Delete(ctx context.Context, table string, where []store.Cond) (int64, error) {
	query, args, err := buildDelete(dialectSQLite, table, where)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args)
}

func (s *SQLite) BulkUpdate(ctx context.Context, table string, where []store.Cond, values map[string]any) (int64, error) {
	query, args, err := buildUpdate(dialectSQLite, table, where, values)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args)
}

func (s *SQLite) exec(ctx context.Context, query string, args []any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &QueryError{Query: query, Err: err}
	}
	return res.RowsAffected()
}
