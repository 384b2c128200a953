//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"groupreaper/ioc"
	"groupreaper/pkg/server"
)

func InitApp(ctx context.Context) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.InitConfig,
		ioc.InitLogger,
		ioc.InitDatabase,
		ioc.InitEventStore,
		ioc.InitNodeStore,
		ioc.InitSimilarityIndex,
		ioc.InitAppService,
		ioc.InitMetrics,
		ioc.InitDeletionHandler,
		ioc.InitGinEngine,
		ioc.InitScheduler,
		server.NewHTTPServer,
	))
}
