package eventstore

import (
	"context"
	"testing"
	"time"

	"groupreaper/internal/domain"
)

func TestStaticStoreFilterOrderLimit(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStaticStore(
		domain.Event{ProjectID: 1, GroupID: 10, EventID: "a", Timestamp: base},
		domain.Event{ProjectID: 1, GroupID: 10, EventID: "b", Timestamp: base.Add(time.Minute)},
		domain.Event{ProjectID: 1, GroupID: 10, EventID: "c", Timestamp: base.Add(time.Minute)},
		domain.Event{ProjectID: 1, GroupID: 11, EventID: "d", Timestamp: base.Add(2 * time.Minute)},
		domain.Event{ProjectID: 2, GroupID: 10, EventID: "e", Timestamp: base.Add(3 * time.Minute)},
	)

	got, err := s.GetEvents(context.Background(),
		Filter{ProjectIDs: []int64{1}, GroupIDs: []int64{10}},
		QueryOptions{OrderBy: []string{"-timestamp", "-event_id"}, Limit: 2})
	if err != nil {
		t.Fatalf("GetEvents error: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "c" || got[1].EventID != "b" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestStaticStoreCursorCondition(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStaticStore(
		domain.Event{ProjectID: 1, GroupID: 10, EventID: "a", Timestamp: base},
		domain.Event{ProjectID: 1, GroupID: 10, EventID: "b", Timestamp: base.Add(time.Minute)},
		domain.Event{ProjectID: 1, GroupID: 10, EventID: "c", Timestamp: base.Add(time.Minute)},
	)
	cursorTS := base.Add(time.Minute)
	got, err := s.GetEvents(context.Background(),
		Filter{
			GroupIDs: []int64{10},
			Conditions: []Condition{
				Cond(FieldTimestamp, "<=", cursorTS),
				AnyOf(Cond(FieldTimestamp, "<", cursorTS), Cond(FieldEventID, "<", "c")),
			},
		},
		QueryOptions{OrderBy: []string{"-timestamp", "-event_id"}})
	if err != nil {
		t.Fatalf("GetEvents error: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "b" || got[1].EventID != "a" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestStaticStoreRejectsBadCondition(t *testing.T) {
	s := NewStaticStore(domain.Event{ProjectID: 1, GroupID: 10, EventID: "a"})
	_, err := s.GetEvents(context.Background(),
		Filter{Conditions: []Condition{Cond(FieldTimestamp, "<", "yesterday")}},
		QueryOptions{})
	if err == nil {
		t.Fatalf("expected error for mistyped timestamp value")
	}
	_, err = s.GetEvents(context.Background(),
		Filter{Conditions: []Condition{Cond(FieldEventID, "~", "a")}},
		QueryOptions{})
	if err == nil {
		t.Fatalf("expected error for unsupported operator")
	}
}

func TestConditionMarshalJSON(t *testing.T) {
	c := AnyOf(Cond(FieldEventID, "<", "x"), Cond(FieldProjectID, "=", int64(3)))
	raw, err := c.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	want := `[["event_id","<","x"],["project_id","=",3]]`
	if string(raw) != want {
		t.Fatalf("got %s want %s", raw, want)
	}
}
