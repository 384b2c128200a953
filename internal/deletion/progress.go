package deletion

// Phase 是根实体删除状态机的阶段。
type Phase string

const (
	PhaseMark   Phase = "mark"
	PhaseDrain  Phase = "drain"
	PhaseDelete Phase = "delete"
	PhaseDone   Phase = "done"
)

// Progress 是一次删除的续点，由调度方持久化。零值表示从头开始，
// 已清空的关系再查一遍即可确认，所以丢失进度只会多做查询。
type Progress struct {
	Phase    Phase   `json:"phase,omitempty"`
	Relation int     `json:"relation,omitempty"`
	Cursor   *Cursor `json:"cursor,omitempty"`
	Deleted  int64   `json:"deleted,omitempty"`
}

// Done 表示根行已不存在。
func (p Progress) Done() bool {
	return p.Phase == PhaseDone
}
