package similarity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"groupreaper/internal/cypher"
)

// Index 是相似度索引的删除钩子。删除不存在的分组不报错。
type Index interface {
	Delete(ctx context.Context, projectID, groupID int64) error
}

// Noop 在未配置索引时使用。
type Noop struct{}

func (Noop) Delete(context.Context, int64, int64) error { return nil }

// Neo4jIndex 把分组特征保存在 Neo4j 中。
type Neo4jIndex struct {
	writer      Writer
	logger      *zap.Logger
	deleteQuery string
}

var _ Index = (*Neo4jIndex)(nil)

func NewNeo4jIndex(writer Writer, logger *zap.Logger) *Neo4jIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Neo4jIndex{
		writer:      writer,
		logger:      logger,
		deleteQuery: cypher.MustTemplate("delete_group.cql", cypher.DefaultLabels),
	}
}

// Ensure 创建查找索引。
func (i *Neo4jIndex) Ensure(ctx context.Context) error {
	for _, query := range cypher.Statements(cypher.MustAsset("init_schema.cql")) {
		if err := i.writer.RunRaw(ctx, query, nil); err != nil {
			return fmt.Errorf("执行 schema 语句失败: %w", err)
		}
	}
	return nil
}

// Delete 删除分组节点以及不再被引用的特征桶。
func (i *Neo4jIndex) Delete(ctx context.Context, projectID, groupID int64) error {
	err := i.writer.RunWrite(ctx, i.deleteQuery, map[string]any{
		"project_id": projectID,
		"group_id":   groupID,
	})
	if err != nil {
		return fmt.Errorf("删除相似度索引失败: %w", err)
	}
	i.logger.Debug("相似度索引已删除", zap.Int64("project_id", projectID), zap.Int64("group_id", groupID))
	return nil
}
