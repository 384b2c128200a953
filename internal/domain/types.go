package domain

import "time"

// EntityKind 标识一类可删除记录，同时也是关系库中的表名。
type EntityKind string

const (
	KindGroup                 EntityKind = "issue_group"
	KindGroupHash             EntityKind = "group_hash"
	KindGroupAssignee         EntityKind = "group_assignee"
	KindGroupCommitResolution EntityKind = "group_commit_resolution"
	KindGroupLink             EntityKind = "group_link"
	KindGroupBookmark         EntityKind = "group_bookmark"
	KindGroupMeta             EntityKind = "group_meta"
	KindGroupEnvironment      EntityKind = "group_environment"
	KindGroupRelease          EntityKind = "group_release"
	KindGroupRedirect         EntityKind = "group_redirect"
	KindGroupResolution       EntityKind = "group_resolution"
	KindGroupRuleStatus       EntityKind = "group_rule_status"
	KindGroupSeen             EntityKind = "group_seen"
	KindGroupShare            EntityKind = "group_share"
	KindGroupSnooze           EntityKind = "group_snooze"
	KindGroupEmailThread      EntityKind = "group_email_thread"
	KindGroupSubscription     EntityKind = "group_subscription"
	KindUserReport            EntityKind = "user_report"
	KindIncidentGroup         EntityKind = "incident_group"
	KindEvent                 EntityKind = "event"
	KindEventAttachment       EntityKind = "event_attachment"

	// KindEventData 不是表：事件存储 + nodestore + 附件/用户反馈。
	KindEventData EntityKind = "event_data"
	// KindSimilarity 是删除前钩子使用的派生索引。
	KindSimilarity EntityKind = "similarity"
)

// Table 返回对应的表名。
func (k EntityKind) Table() string {
	return string(k)
}

// GroupStatus 是根实体上的状态字段。
type GroupStatus int

const (
	GroupStatusUnresolved         GroupStatus = 0
	GroupStatusResolved           GroupStatus = 1
	GroupStatusIgnored            GroupStatus = 2
	GroupStatusPendingDeletion    GroupStatus = 3
	GroupStatusDeletionInProgress GroupStatus = 4
)

func (s GroupStatus) String() string {
	switch s {
	case GroupStatusUnresolved:
		return "unresolved"
	case GroupStatusResolved:
		return "resolved"
	case GroupStatusIgnored:
		return "ignored"
	case GroupStatusPendingDeletion:
		return "pending_deletion"
	case GroupStatusDeletionInProgress:
		return "deletion_in_progress"
	default:
		return "unknown"
	}
}

// Group 是级联删除的根实体。
type Group struct {
	ID        int64       `json:"id"`
	ProjectID int64       `json:"project_id"`
	Status    GroupStatus `json:"status"`
	Title     string      `json:"title"`
}

// Event 是事件存储返回的一条记录，只包含删除需要的列。
type Event struct {
	ProjectID int64     `json:"project_id"`
	GroupID   int64     `json:"group_id"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}
