package relational

import (
	"context"
	"fmt"
	"strings"

	"groupreaper/internal/store"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config 控制关系库连接。
type Config struct {
	Driver   string
	DSN      string
	MaxConns int32
}

// DB 是带生命周期管理的关系存储。
type DB interface {
	store.Store
	EnsureSchema(ctx context.Context) error
	Close() error
}

// Open 根据 driver 打开对应实现。
func Open(ctx context.Context, cfg Config) (DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database dsn 不能为空")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "pgx", "":
		pg, err := ConnectPostgres(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case DriverSQLite:
		lite, err := OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动 %q", cfg.Driver)
	}
}
