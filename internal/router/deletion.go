package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groupreaper/internal/schedule"
)

// JobReader 按 guid 查询删除任务。
type JobReader interface {
	Job(ctx context.Context, guid string) (schedule.Job, error)
}

// DeletionHandler 只提供删除任务的只读查询，不提供触发删除的入口。
type DeletionHandler struct {
	jobs   JobReader
	logger *zap.Logger
}

// NewDeletionHandler 构建一个新的 DeletionHandler。
func NewDeletionHandler(jobs JobReader, logger *zap.Logger) *DeletionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeletionHandler{jobs: jobs, logger: logger}
}

// RegisterRoutes 将删除任务路由注册到给定的路由组。
func (h *DeletionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:guid", h.handleGet)
}

func (h *DeletionHandler) handleGet(c *gin.Context) {
	guid := strings.TrimSpace(c.Param("guid"))
	if guid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guid is required"})
		return
	}
	job, err := h.jobs.Job(c.Request.Context(), guid)
	if errors.Is(err, schedule.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "deletion not found"})
		return
	}
	if err != nil {
		h.logger.Error("query deletion failed", zap.String("guid", guid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}
