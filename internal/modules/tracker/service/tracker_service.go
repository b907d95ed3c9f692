package service

import (
	"time"

	"studylog/internal/modules/tracker/domain"
	"studylog/internal/platform/clock"
	"studylog/internal/platform/id"
	"studylog/internal/platform/studyday"
)

// TrackerService applies timer transitions to a document. It owns the
// clock and id generator so the domain stays deterministic; "now" is
// sampled once per operation.
type TrackerService struct {
	clock clock.Clock
	ids   id.Generator
	day   studyday.Clock
	th    domain.Thresholds
}

func NewTrackerService(clk clock.Clock, ids id.Generator, day studyday.Clock, th domain.Thresholds) *TrackerService {
	return &TrackerService{clock: clk, ids: ids, day: day, th: th}
}

func (s *TrackerService) Now() time.Time {
	return s.clock.Now()
}

func (s *TrackerService) Day() studyday.Clock {
	return s.day
}

// PrepareLoaded lifts a freshly loaded document to the current schema
// and repairs crash leftovers. It runs exactly once per process, before
// anything reads the log.
func (s *TrackerService) PrepareLoaded(doc domain.Document, flat []domain.LegacyFlatRecord, exams []domain.LegacyExamEntry) (domain.Document, domain.RecoveryReport) {
	migrated := domain.Migrate(doc, flat, exams, s.day, s.th, s.ids)
	report := migrated.Recover()
	return migrated, report
}

func (s *TrackerService) Start(doc *domain.Document) domain.TimerChange {
	return doc.Start(s.clock.Now(), s.day, s.ids)
}

func (s *TrackerService) Pause(doc *domain.Document) domain.TimerChange {
	return doc.Pause(s.clock.Now())
}

func (s *TrackerService) Reset(doc *domain.Document) domain.TimerChange {
	return doc.Reset(s.clock.Now(), s.day)
}

func (s *TrackerService) SetActiveSubject(doc *domain.Document, subjectID string) domain.TimerChange {
	return doc.SetActiveSubject(s.clock.Now(), s.ids, subjectID)
}

func (s *TrackerService) StartSession(doc *domain.Document, mode domain.SessionMode, title string, meta domain.SessionMeta) (*domain.Session, error) {
	return doc.StartSession(s.clock.Now(), s.day, s.ids, mode, title, meta)
}

func (s *TrackerService) EndSession(doc *domain.Document) domain.TimerChange {
	return doc.EndSession(s.clock.Now(), s.day)
}

func (s *TrackerService) StartSegment(doc *domain.Document, sessionID string, subject domain.SubjectRef, kind domain.SegmentKind, startedAt time.Time) (*domain.Segment, domain.NoopReason) {
	return doc.StartSegment(s.clock.Now(), s.ids, sessionID, subject, kind, startedAt)
}

func (s *TrackerService) EndSegment(doc *domain.Document, segmentID string, endedAt time.Time) (*domain.Segment, domain.NoopReason) {
	return doc.EndSegment(s.clock.Now(), segmentID, endedAt)
}

func (s *TrackerService) AddQuestion(doc *domain.Document, sessionID, segmentID string, subject domain.SubjectRef, durationMS int64, startedAt, endedAt time.Time, source domain.QuestionSource) (*domain.QuestionRecord, error) {
	return doc.AddQuestion(s.ids, sessionID, segmentID, subject, durationMS, startedAt, endedAt, source)
}

func (s *TrackerService) CreateSubject(doc *domain.Document, name string) (*domain.Subject, error) {
	return doc.CreateSubject(s.clock.Now(), s.ids, name)
}

func (s *TrackerService) RenameSubject(doc *domain.Document, subjectID, name string) (*domain.Subject, bool) {
	return doc.RenameSubject(s.clock.Now(), subjectID, name)
}

func (s *TrackerService) ArchiveSubject(doc *domain.Document, subjectID string) (*domain.Subject, bool) {
	return doc.ArchiveSubject(s.clock.Now(), subjectID)
}

func (s *TrackerService) ReorderSubject(doc *domain.Document, subjectID string, position int) (*domain.Subject, bool) {
	return doc.ReorderSubject(s.clock.Now(), subjectID, position)
}
