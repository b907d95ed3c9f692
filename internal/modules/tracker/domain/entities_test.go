package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"studylog/internal/modules/tracker/domain"
)

func TestSubjectRefRoundTripsReservedTags(t *testing.T) {
	t.Parallel()
	cases := []struct {
		ref  domain.SubjectRef
		kind domain.SubjectRefKind
		raw  string
	}{
		{domain.RealSubject("abc-123"), domain.RefReal, "abc-123"},
		{domain.ReviewBucket(), domain.RefReview, "review"},
		{domain.LegacyCategory("korean-history"), domain.RefLegacyCategory, "legacy-category:korean-history"},
		{domain.RoomExamBucket(), domain.RefRoomExam, "room-exam"},
	}
	for _, tc := range cases {
		if tc.ref.Kind() != tc.kind {
			t.Fatalf("%s: kind %s, want %s", tc.raw, tc.ref.Kind(), tc.kind)
		}
		if tc.ref.String() != tc.raw {
			t.Fatalf("encoded %q, want %q", tc.ref.String(), tc.raw)
		}
		if parsed := domain.ParseSubjectRef(tc.raw); parsed != tc.ref {
			t.Fatalf("parse %q: got %+v", tc.raw, parsed)
		}
	}
	if domain.LegacyCategory("x").SubjectID() != "" {
		t.Fatalf("reserved buckets must not expose a subject id")
	}
	if domain.RealSubject("abc").SubjectID() != "abc" {
		t.Fatalf("real ref must expose its id")
	}
}

func TestSubjectRefJSONEncoding(t *testing.T) {
	t.Parallel()
	payload, err := json.Marshal(domain.LegacyCategory("math"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `"legacy-category:math"` {
		t.Fatalf("unexpected encoding %s", payload)
	}
	var decoded domain.SubjectRef
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind() != domain.RefLegacyCategory || decoded.CategoryName() != "math" {
		t.Fatalf("decoded %+v", decoded)
	}
}

func TestEndTimeDistinguishesOpenFromClosed(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	open := domain.Open()
	if open.IsClosed() {
		t.Fatalf("open end time reported closed")
	}
	if got := open.Or(now); !got.Equal(now) {
		t.Fatalf("open Or(now) = %v", got)
	}

	closed := domain.ClosedAt(now)
	if !closed.IsClosed() || !closed.At().Equal(now) {
		t.Fatalf("closed end time lost its value: %+v", closed)
	}

	payload, err := json.Marshal(struct {
		A domain.EndTime `json:"a"`
		B domain.EndTime `json:"b"`
	}{A: open, B: closed})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		A domain.EndTime `json:"a"`
		B domain.EndTime `json:"b"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.A.IsClosed() {
		t.Fatalf("null must decode as open")
	}
	if !decoded.B.IsClosed() || !decoded.B.At().Equal(now) {
		t.Fatalf("closed end time did not survive the round trip: %+v", decoded.B)
	}
}

func TestSegmentDurationClampsAndGrowsWhileOpen(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	seg := domain.Segment{StartedAt: start, EndedAt: domain.Open()}
	if got := seg.Duration(start.Add(5 * time.Minute)); got != 5*time.Minute {
		t.Fatalf("open duration = %v", got)
	}
	if got := seg.Duration(start.Add(-time.Minute)); got != 0 {
		t.Fatalf("duration must clamp to zero, got %v", got)
	}
	seg.EndedAt = domain.ClosedAt(start.Add(2 * time.Minute))
	if got := seg.Duration(start.Add(time.Hour)); got != 2*time.Minute {
		t.Fatalf("closed duration must ignore now, got %v", got)
	}
}

func TestStopwatchElapsedIncludesLiveRun(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	w := domain.Stopwatch{Running: true, StartedAt: start, AccumulatedMS: 60000}
	if got := w.ElapsedMS(start.Add(30 * time.Second)); got != 90000 {
		t.Fatalf("elapsed = %d, want 90000", got)
	}
	w.Running = false
	if got := w.ElapsedMS(start.Add(time.Hour)); got != 60000 {
		t.Fatalf("idle elapsed = %d, want 60000", got)
	}
}
