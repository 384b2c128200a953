package ioc

import (
	"go.uber.org/zap"

	"groupreaper/internal/app"
	"groupreaper/pkg/logging"
)

// InitLogger 构建全局 logger。
func InitLogger(cfg app.Config) (*zap.Logger, error) {
	return logging.NewZapLogger(logging.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
}
