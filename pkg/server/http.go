package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groupreaper/internal/app"
	"groupreaper/internal/job"
)

// HTTPServer 封装 HTTP 服务运行所需的依赖。
type HTTPServer struct {
	Engine *gin.Engine
	Logger *zap.Logger
	Config app.Config
	Job    *job.Scheduler
}

// NewHTTPServer 构建 HTTPServer。
func NewHTTPServer(engine *gin.Engine, logger *zap.Logger, cfg app.Config, scheduler *job.Scheduler) *HTTPServer {
	return &HTTPServer{
		Engine: engine,
		Logger: logger,
		Config: cfg,
		Job:    scheduler,
	}
}

// Run 启动 HTTP 服务及后台删除任务，ctx 取消后优雅退出。
func (s *HTTPServer) Run(ctx context.Context) error {
	listen := strings.TrimSpace(s.Config.HTTP.Listen)
	if listen == "" {
		listen = ":8080"
	}

	if s.Job != nil {
		cancelJob := s.Job.Start(ctx)
		defer cancelJob()
	}

	srv := &http.Server{Addr: listen, Handler: s.Engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	if s.Logger != nil {
		s.Logger.Info("http server starting", zap.String("listen", listen))
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.Logger != nil {
		s.Logger.Info("http server shutting down")
	}
	return srv.Shutdown(shutdownCtx)
}
