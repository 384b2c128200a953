package ioc

import (
	"go.uber.org/zap"

	"groupreaper/internal/app"
	"groupreaper/internal/eventstore"
	"groupreaper/internal/nodestore"
	"groupreaper/internal/similarity"
	"groupreaper/internal/store"
)

// InitAppService 构建删除服务。
func InitAppService(cfg app.Config, db store.Store, events eventstore.Store, nodes nodestore.Store,
	index similarity.Index, logger *zap.Logger) (*app.Service, error) {
	return app.NewService(cfg, db, events, nodes, index, logger)
}
