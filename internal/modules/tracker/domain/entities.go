package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type SessionMode string

const (
	ModeProblemSolving SessionMode = "problem-solving"
	ModeMockExam       SessionMode = "mock-exam"
)

func (m SessionMode) Validate() error {
	switch m {
	case ModeProblemSolving, ModeMockExam:
		return nil
	default:
		return fmt.Errorf("unknown session mode: %s", m)
	}
}

type SegmentKind string

const (
	KindStudy  SegmentKind = "study"
	KindSolve  SegmentKind = "solve"
	KindReview SegmentKind = "review"
)

type QuestionSource string

const (
	SourceTap    QuestionSource = "tap"
	SourceFinish QuestionSource = "finish"
	SourceManual QuestionSource = "manual"
)

type SubjectRefKind string

const (
	RefReal           SubjectRefKind = "real"
	RefReview         SubjectRefKind = "review"
	RefLegacyCategory SubjectRefKind = "legacy-category"
	RefRoomExam       SubjectRefKind = "room-exam"
)

const (
	reviewTag         = "review"
	roomExamTag       = "room-exam"
	legacyCategoryTag = "legacy-category:"
)

// SubjectRef is either a real subject id or one of the reserved buckets.
// Reserved buckets are never resolved against the subject table.
type SubjectRef struct {
	kind  SubjectRefKind
	value string
}

func RealSubject(id string) SubjectRef {
	return SubjectRef{kind: RefReal, value: id}
}

func ReviewBucket() SubjectRef {
	return SubjectRef{kind: RefReview}
}

func LegacyCategory(name string) SubjectRef {
	return SubjectRef{kind: RefLegacyCategory, value: name}
}

func RoomExamBucket() SubjectRef {
	return SubjectRef{kind: RefRoomExam}
}

func (r SubjectRef) Kind() SubjectRefKind { return r.kind }

// SubjectID returns the real subject id, or "" for reserved buckets.
func (r SubjectRef) SubjectID() string {
	if r.kind == RefReal {
		return r.value
	}
	return ""
}

// CategoryName returns the legacy category name, or "" otherwise.
func (r SubjectRef) CategoryName() string {
	if r.kind == RefLegacyCategory {
		return r.value
	}
	return ""
}

func (r SubjectRef) IsZero() bool {
	return r.kind == ""
}

// String renders the persisted form.
func (r SubjectRef) String() string {
	switch r.kind {
	case RefReview:
		return reviewTag
	case RefRoomExam:
		return roomExamTag
	case RefLegacyCategory:
		return legacyCategoryTag + r.value
	default:
		return r.value
	}
}

// ParseSubjectRef decodes the persisted form. Anything that is not a
// reserved tag is a real subject id.
func ParseSubjectRef(s string) SubjectRef {
	switch {
	case s == reviewTag:
		return ReviewBucket()
	case s == roomExamTag:
		return RoomExamBucket()
	case strings.HasPrefix(s, legacyCategoryTag):
		return LegacyCategory(strings.TrimPrefix(s, legacyCategoryTag))
	default:
		return RealSubject(s)
	}
}

func (r SubjectRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *SubjectRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseSubjectRef(s)
	return nil
}

// EndTime makes "in progress" a typed state instead of an absent value.
type EndTime struct {
	at     time.Time
	closed bool
}

func Open() EndTime {
	return EndTime{}
}

func ClosedAt(t time.Time) EndTime {
	return EndTime{at: t, closed: true}
}

func (e EndTime) IsClosed() bool { return e.closed }

// At returns the close time; the zero time while open.
func (e EndTime) At() time.Time { return e.at }

// Or returns the close time, or fallback while still open.
func (e EndTime) Or(fallback time.Time) time.Time {
	if e.closed {
		return e.at
	}
	return fallback
}

func (e EndTime) MarshalJSON() ([]byte, error) {
	if !e.closed {
		return []byte("null"), nil
	}
	return json.Marshal(e.at.Format(time.RFC3339Nano))
}

func (e *EndTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = Open()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*e = Open()
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse end time: %w", err)
	}
	*e = ClosedAt(t)
	return nil
}

// Subject is a user-defined study topic. Subjects are archived, never
// hard-deleted, so historical records keep a valid reference.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionMeta carries optional mock-exam parameters.
type SessionMeta struct {
	TimeLimitSec    int `json:"time_limit_sec,omitempty"`
	TargetQuestions int `json:"target_questions,omitempty"`
}

// Session is a top-level activity window of one mode.
type Session struct {
	ID        string      `json:"id"`
	Mode      SessionMode `json:"mode"`
	StudyDate string      `json:"study_date"`
	Title     string      `json:"title,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   EndTime     `json:"ended_at"`
	Meta      SessionMeta `json:"meta,omitempty"`
}

// Segment is a contiguous slice of one session devoted to one subject.
type Segment struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Subject   SubjectRef  `json:"subject_id"`
	Kind      SegmentKind `json:"kind"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   EndTime     `json:"ended_at"`
}

// Duration is (EndedAt or now) - StartedAt, clamped to >= 0. An open
// segment's duration grows with wall-clock time when queried.
func (s Segment) Duration(now time.Time) time.Duration {
	d := s.EndedAt.Or(now).Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// QuestionRecord is one measured lap. QuestionNo is segment-local and
// always recomputed on append; legacy numbering is never trusted.
type QuestionRecord struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	SegmentID  string         `json:"segment_id"`
	Subject    SubjectRef     `json:"subject_id"`
	QuestionNo int            `json:"question_no"`
	DurationMS int64          `json:"duration_ms"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	Source     QuestionSource `json:"source"`
}

// Stopwatch is the cross-session cumulative counter for the current
// study day only.
type Stopwatch struct {
	Running       bool      `json:"running"`
	StartedAt     time.Time `json:"started_at"`
	AccumulatedMS int64     `json:"accumulated_ms"`
}

// ElapsedMS is the daily total including the live run, if any.
func (w Stopwatch) ElapsedMS(now time.Time) int64 {
	total := w.AccumulatedMS
	if w.Running {
		if live := now.Sub(w.StartedAt); live > 0 {
			total += live.Milliseconds()
		}
	}
	return total
}
