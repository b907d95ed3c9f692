package dto

import (
	"time"

	"studylog/internal/modules/tracker/domain"
)

type SubjectOutput struct {
	ID       string
	Name     string
	Order    int
	Archived bool
}

// TimerOutput reports a timer transition. Changed false with a Reason
// is the ordinary-misuse no-op signal, not an error.
type TimerOutput struct {
	Changed        bool
	Reason         string
	Running        bool
	ElapsedTodayMS int64
	SessionID      string
	SegmentID      string
}

type StartSessionInput struct {
	Mode            string
	Title           string
	TimeLimitSec    int
	TargetQuestions int
}

type SessionOutput struct {
	Changed   bool
	Reason    string
	SessionID string
	Mode      string
	StudyDate string
	Title     string
	StartedAt time.Time
	EndedAt   *time.Time
}

type StartSegmentInput struct {
	SessionID string
	Subject   string
	Kind      string
	StartedAt time.Time
}

type EndSegmentInput struct {
	SegmentID string
	EndedAt   time.Time
}

type SegmentOutput struct {
	Changed   bool
	Reason    string
	SegmentID string
	SessionID string
	Subject   string
	Kind      string
	StartedAt time.Time
	EndedAt   *time.Time
}

type AddQuestionInput struct {
	SessionID  string
	SegmentID  string
	Subject    string
	DurationMS int64
	StartedAt  time.Time
	EndedAt    time.Time
	Source     string
}

// ActiveQuestionInput records a lap against whatever segment is open;
// its start time is derived backwards from the duration.
type ActiveQuestionInput struct {
	DurationMS int64
	Source     string
}

type QuestionOutput struct {
	QuestionID string
	SessionID  string
	SegmentID  string
	QuestionNo int
	DurationMS int64
}

type StatusOutput struct {
	Running        bool
	StudyDate      string
	ElapsedTodayMS int64
	ActiveSubject  *SubjectOutput
	SessionID      string
	SegmentID      string
}

// IntakeInput carries finished entities posted by an external producer
// (room exams). The engine treats them like any other well-formed
// records.
type IntakeInput struct {
	Session  domain.Session
	Segments []domain.Segment
	Records  []domain.QuestionRecord
}

// SnapshotOutput is a read-only copy of the log for read-model
// builders; mutating it never touches the live document.
type SnapshotOutput struct {
	Now             time.Time
	Subjects        []domain.Subject
	Sessions        []domain.Session
	Segments        []domain.Segment
	Records         []domain.QuestionRecord
	ActiveSubjectID string
	ElapsedTodayMS  int64
}
