package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 控制日志级别和编码，编码为 console 或 json。
type Config struct {
	Level    string
	Encoding string
}

// NewZapLogger 构建 zap logger，默认 console 编码、info 级别。
func NewZapLogger(c Config) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Encoding = "console"
	if enc := strings.TrimSpace(c.Encoding); enc != "" {
		cfg.Encoding = enc
	}
	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, fmt.Errorf("非法的日志级别 %q: %w", c.Level, err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
