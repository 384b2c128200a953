package ioc

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"groupreaper/internal/app"
	"groupreaper/internal/metrics"
	"groupreaper/internal/router"
)

// InitMetrics 注册指标。
func InitMetrics() prometheus.Gatherer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)
	return reg
}

// InitDeletionHandler 构建删除任务查询处理器。
func InitDeletionHandler(svc *app.Service, logger *zap.Logger) *router.DeletionHandler {
	return router.NewDeletionHandler(svc, logger)
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(handler *router.DeletionHandler, gatherer prometheus.Gatherer) *gin.Engine {
	return router.NewEngine(handler, gatherer)
}
