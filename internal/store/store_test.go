package store

import (
	"errors"
	"testing"
)

func TestInCopiesValues(t *testing.T) {
	cond := In("event_id", []string{"a", "b"})
	vals, ok := cond.Value.([]any)
	if !ok || len(vals) != 2 || vals[1] != "b" {
		t.Fatalf("unexpected in values %#v", cond.Value)
	}
	if cond.Op != OpIn {
		t.Fatalf("unexpected op %s", cond.Op)
	}
}

func TestValidIdentifier(t *testing.T) {
	if err := ValidIdentifier("group_hash"); err != nil {
		t.Fatalf("expect valid: %v", err)
	}
	for _, bad := range []string{"", "Group", "a;drop", "1abc", "a b"} {
		if err := ValidIdentifier(bad); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("expect invalid identifier for %q, got %v", bad, err)
		}
	}
}

func TestParseOrder(t *testing.T) {
	col, desc := ParseOrder("-timestamp")
	if col != "timestamp" || !desc {
		t.Fatalf("unexpected %s %v", col, desc)
	}
	col, desc = ParseOrder("id")
	if col != "id" || desc {
		t.Fatalf("unexpected %s %v", col, desc)
	}
}

func TestRowConversions(t *testing.T) {
	row := Row{"a": int32(7), "b": []byte("12"), "c": int64(1), "d": nil, "e": "text"}
	if v, err := row.Int64("a"); err != nil || v != 7 {
		t.Fatalf("int32 conversion: %d %v", v, err)
	}
	if v, err := row.Int64("b"); err != nil || v != 12 {
		t.Fatalf("bytes conversion: %d %v", v, err)
	}
	if _, err := row.Int64("d"); err == nil {
		t.Fatalf("expect error for null column")
	}
	if !row.Bool("c") || row.Bool("d") {
		t.Fatalf("unexpected bool conversion")
	}
	if row.String("e") != "text" || row.String("d") != "" {
		t.Fatalf("unexpected string conversion")
	}
}
