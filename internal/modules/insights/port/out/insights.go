package out

import (
	"context"
	"time"

	tracker "studylog/internal/modules/tracker/domain"
)

// LogSnapshot is a detached copy of the entity log plus the instant it
// was taken at; every derived number is computed against that one Now.
type LogSnapshot struct {
	Now      time.Time
	Subjects []tracker.Subject
	Sessions []tracker.Session
	Segments []tracker.Segment
	Records  []tracker.QuestionRecord
}

type LogReader interface {
	Snapshot(ctx context.Context) (LogSnapshot, error)
}

type DayRow struct {
	Date          string
	DurationMS    int64
	QuestionCount int
	SessionCount  int
}

type SessionRow struct {
	ID            string
	Mode          string
	StudyDate     string
	Title         string
	StartedAt     time.Time
	DurationMS    int64
	QuestionCount int
	SegmentCount  int
}

// StatsProjector maintains a queryable copy of the derived statistics.
// It is rebuilt wholesale and is never a source of truth.
type StatsProjector interface {
	Reset(ctx context.Context) error
	UpsertDay(ctx context.Context, row DayRow) error
	UpsertSession(ctx context.Context, row SessionRow) error
	Close() error
}

type DailyNote struct {
	Date          string
	DurationMS    int64
	QuestionCount int
	SessionCount  int
	SubjectLines  []string
}

// NoteStore renders one note per study day into the notes tree.
type NoteStore interface {
	WriteDailyNote(ctx context.Context, note DailyNote) (string, error)
}
