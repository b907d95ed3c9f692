package parse_test

import (
	"testing"
	"time"

	"studylog/internal/platform/parse"
)

func TestParseDefaultsAndCountsCorruptedFields(t *testing.T) {
	t.Parallel()
	m := map[string]any{
		"name":     "algebra",
		"count":    float64(3),
		"duration": float64(1500),
		"started":  "2026-03-14T10:00:00Z",
		"bogus":    []any{},
	}
	d := parse.Diag{}

	if got := parse.String(m, "name", "x", &d); got != "algebra" {
		t.Fatalf("string: got %q", got)
	}
	if got := parse.Int(m, "count", 1, &d); got != 3 {
		t.Fatalf("int: got %d", got)
	}
	if got := parse.Int64(m, "duration", 0, &d); got != 1500 {
		t.Fatalf("int64: got %d", got)
	}
	want := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if got := parse.Time(m, "started", time.Time{}, &d); !got.Equal(want) {
		t.Fatalf("time: got %v", got)
	}
	if d.Defaulted != 0 {
		t.Fatalf("no fields should have been defaulted, got %d", d.Defaulted)
	}

	if got := parse.String(m, "missing", "fallback", &d); got != "fallback" {
		t.Fatalf("missing string: got %q", got)
	}
	if got := parse.Int(m, "bogus", 7, &d); got != 7 {
		t.Fatalf("mistyped int: got %d", got)
	}
	if got := parse.Time(m, "bogus", want, &d); !got.Equal(want) {
		t.Fatalf("mistyped time: got %v", got)
	}
	if d.Defaulted != 3 {
		t.Fatalf("expected 3 defaulted fields, got %d", d.Defaulted)
	}
}

func TestParseTimeAcceptsUnixMilliseconds(t *testing.T) {
	t.Parallel()
	d := parse.Diag{}
	m := map[string]any{"at": float64(1773900000000)}
	got := parse.Time(m, "at", time.Time{}, &d)
	if got.UnixMilli() != 1773900000000 {
		t.Fatalf("unix ms round-trip failed, got %v", got)
	}
	if d.Defaulted != 0 {
		t.Fatalf("unix ms must not count as defaulted")
	}
}
