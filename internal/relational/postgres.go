package relational

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"groupreaper/internal/store"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Postgres 基于 pgx 连接池实现 store.Store。
type Postgres struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Postgres)(nil)

// NewPostgres 包装已有连接池。
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ConnectPostgres 建立连接池并校验连通性。
func ConnectPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("解析 postgres dsn 失败: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("创建 postgres 连接池失败: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres 无法连通: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema 执行内置建表语句，可重复执行。
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, raw := range strings.Split(postgresSchema, ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return &QueryError{Query: stmt, Err: err}
		}
	}
	return nil
}

// Close 关闭连接池。
func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Filter(ctx context.Context, q store.Query) ([]store.Row, error) {
	sql, args, err := buildSelect(dialectPostgres, q)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Query: sql, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var result []store.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &QueryError{Query: sql, Err: err}
		}
		row := make(store.Row, len(fields))
		for i, f := range fields {
			row[f.Name] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: sql, Err: err}
	}
	return result, nil
}

func (p *Postgres) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	sql, args, err := buildInsert(dialectPostgres, table, values)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, &QueryError{Query: sql, Err: err}
	}
	return id, nil
}

func (p *Postgres) Delete(ctx context.Context, table string, where []store.Cond) (int64, error) {
	sql, args, err := buildDelete(dialectPostgres, table, where)
	if err != nil {
		return 0, err
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, &QueryError{Query: sql, Err: err}
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) BulkUpdate(ctx context.Context, table string, where []store.Cond, values map[string]any) (int64, error) {
	sql, args, err := buildUpdate(dialectPostgres, table, where, values)
	if err != nil {
		return 0, err
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, &QueryError{Query: sql, Err: err}
	}
	return tag.RowsAffected(), nil
}
