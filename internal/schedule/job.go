package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"groupreaper/internal/deletion"
	"groupreaper/internal/domain"
	"groupreaper/internal/store"
)

// Table 是删除队列表。
const Table = "scheduled_deletion"

var jobColumns = []string{
	"id", "guid", "root_kind", "object_id", "actor_id",
	"date_added", "date_scheduled", "date_claimed",
	"in_progress", "failed", "attempts", "progress", "last_error",
}

// Job 是一条排队中的删除任务。
type Job struct {
	ID            int64             `json:"-"`
	GUID          string            `json:"guid"`
	Kind          domain.EntityKind `json:"kind"`
	ObjectID      int64             `json:"object_id"`
	ActorID       int64             `json:"actor_id"`
	DateAdded     time.Time         `json:"date_added"`
	DateScheduled time.Time         `json:"date_scheduled"`
	DateClaimed   *time.Time        `json:"date_claimed,omitempty"`
	InProgress    bool              `json:"in_progress"`
	Failed        bool              `json:"failed"`
	Attempts      int               `json:"attempts"`
	Progress      deletion.Progress `json:"progress"`
	LastError     string            `json:"last_error,omitempty"`
}

func jobFromRow(row store.Row) (Job, error) {
	var (
		j   Job
		err error
	)
	if j.ID, err = row.Int64("id"); err != nil {
		return Job{}, err
	}
	j.GUID = row.String("guid")
	j.Kind = domain.EntityKind(row.String("root_kind"))
	if j.ObjectID, err = row.Int64("object_id"); err != nil {
		return Job{}, err
	}
	if j.ActorID, err = row.Int64("actor_id"); err != nil {
		return Job{}, err
	}
	added, err := row.Int64("date_added")
	if err != nil {
		return Job{}, err
	}
	scheduled, err := row.Int64("date_scheduled")
	if err != nil {
		return Job{}, err
	}
	claimed, err := row.Int64("date_claimed")
	if err != nil {
		return Job{}, err
	}
	attempts, err := row.Int64("attempts")
	if err != nil {
		return Job{}, err
	}
	j.DateAdded = time.Unix(added, 0).UTC()
	j.DateScheduled = time.Unix(scheduled, 0).UTC()
	if claimed > 0 {
		t := time.Unix(claimed, 0).UTC()
		j.DateClaimed = &t
	}
	j.InProgress = row.Bool("in_progress")
	j.Failed = row.Bool("failed")
	j.Attempts = int(attempts)
	j.LastError = row.String("last_error")
	if raw := row.String("progress"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &j.Progress); err != nil {
			return Job{}, fmt.Errorf("解析进度失败: %w", err)
		}
	}
	return j, nil
}

func encodeProgress(p deletion.Progress) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("编码进度失败: %w", err)
	}
	return string(raw), nil
}
