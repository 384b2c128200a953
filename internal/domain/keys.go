package domain

import (
	"fmt"

	"groupreaper/pkg/util"
)

// 关系过滤条件使用的作用域字段。
const (
	FieldID        = "id"
	FieldGroupID   = "group_id"
	FieldProjectID = "project_id"
	FieldEventID   = "event_id"
	FieldStatus    = "status"
)

// GenerateNodeID 生成事件正文在 nodestore 中的 key，同一 (project, event) 结果恒定。
func GenerateNodeID(projectID int64, eventID string) string {
	return util.MD5Hex(fmt.Sprintf("%d:%s", projectID, eventID))
}
