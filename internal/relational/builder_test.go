package relational

import (
	"errors"
	"testing"

	"groupreaper/internal/store"
)

func TestBuildSelectPostgres(t *testing.T) {
	sql, args, err := buildSelect(dialectPostgres, store.Query{
		Table:   "group_hash",
		Columns: []string{"id"},
		Where:   []store.Cond{store.Eq("group_id", int64(7)), store.In("id", []int64{1, 2})},
		OrderBy: []string{"id"},
		Limit:   3,
	})
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	want := "SELECT id FROM group_hash WHERE group_id = $1 AND id IN ($2,$3) ORDER BY id LIMIT 3"
	if sql != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", sql, want)
	}
	if len(args) != 3 || args[0] != int64(7) || args[2] != int64(2) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildSelectSQLiteDescending(t *testing.T) {
	sql, _, err := buildSelect(dialectSQLite, store.Query{
		Table:   "event",
		Where:   []store.Cond{store.Lte("id", 5)},
		OrderBy: []string{"-id"},
	})
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if sql != "SELECT * FROM event WHERE id <= ? ORDER BY id DESC" {
		t.Fatalf("unexpected sql %s", sql)
	}
}

func TestEmptyInMatchesNothing(t *testing.T) {
	sql, args, err := buildDelete(dialectSQLite, "event_attachment", []store.Cond{
		store.Eq("project_id", 1),
		store.In("event_id", []string{}),
	})
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	if sql != "DELETE FROM event_attachment WHERE project_id = ? AND (1=0)" {
		t.Fatalf("unexpected sql %s", sql)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestUnscopedWritesRejected(t *testing.T) {
	if _, _, err := buildDelete(dialectPostgres, "issue_group", nil); !errors.Is(err, ErrUnscopedWrite) {
		t.Fatalf("expect unscoped delete error, got %v", err)
	}
	if _, _, err := buildUpdate(dialectPostgres, "issue_group", nil, map[string]any{"status": 4}); !errors.Is(err, ErrUnscopedWrite) {
		t.Fatalf("expect unscoped update error, got %v", err)
	}
}

func TestBuildUpdateNumbersSetBeforeWhere(t *testing.T) {
	sql, args, err := buildUpdate(dialectPostgres, "issue_group",
		[]store.Cond{store.In("id", []int64{9}), store.Ne("status", 4)},
		map[string]any{"status": 4, "title": "x"})
	if err != nil {
		t.Fatalf("build update: %v", err)
	}
	want := "UPDATE issue_group SET status = $1, title = $2 WHERE id IN ($3) AND status <> $4"
	if sql != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildInsertReturningOnPostgresOnly(t *testing.T) {
	pg, _, err := buildInsert(dialectPostgres, "issue_group", map[string]any{"project_id": 1, "status": 0})
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}
	if pg != "INSERT INTO issue_group (project_id,status) VALUES ($1,$2) RETURNING id" {
		t.Fatalf("unexpected sql %s", pg)
	}
	lite, _, _ := buildInsert(dialectSQLite, "issue_group", map[string]any{"project_id": 1})
	if lite != "INSERT INTO issue_group (project_id) VALUES (?)" {
		t.Fatalf("unexpected sql %s", lite)
	}
}

func TestIdentifiersValidated(t *testing.T) {
	_, _, err := buildSelect(dialectSQLite, store.Query{Table: "issue_group; DROP TABLE x"})
	if !errors.Is(err, store.ErrInvalidIdentifier) {
		t.Fatalf("expect invalid identifier, got %v", err)
	}
	_, _, err = buildSelect(dialectSQLite, store.Query{Table: "issue_group", OrderBy: []string{"-bad col"}})
	if !errors.Is(err, store.ErrInvalidIdentifier) {
		t.Fatalf("expect invalid identifier, got %v", err)
	}
}

func TestUnknownOperatorRejected(t *testing.T) {
	_, _, err := buildSelect(dialectSQLite, store.Query{
		Table: "event",
		Where: []store.Cond{{Column: "id", Op: "LIKE", Value: "x"}},
	})
	if err == nil {
		t.Fatalf("expect error for unknown operator")
	}
	_, _, err = buildDelete(dialectSQLite, "event", []store.Cond{{Column: "id", Op: store.OpIn, Value: []int64{1}}})
	if err == nil {
		t.Fatalf("expect error for untyped IN values")
	}
}
