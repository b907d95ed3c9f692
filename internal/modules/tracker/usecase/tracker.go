package usecase

import (
	"context"
	"fmt"
	"time"

	"studylog/internal/modules/tracker/domain"
	"studylog/internal/modules/tracker/dto"
	trackerin "studylog/internal/modules/tracker/port/in"
	trackerout "studylog/internal/modules/tracker/port/out"
	"studylog/internal/modules/tracker/service"
	apperrors "studylog/internal/platform/errors"
)

// Interactor owns the live document. The engine assumes a single
// logical writer: operations are synchronous and never interleave, so
// there is no locking here. Persistence is the only asynchronous
// boundary and the store serializes it.
type Interactor struct {
	svc   *service.TrackerService
	store trackerout.DocumentStore
	exams trackerout.LegacyExamStore
	doc   domain.Document
}

// NewInteractor loads, migrates and repairs the persisted log before
// anything can read it. The legacy exam document is consumed exactly
// once: it is deleted right after a successful merge.
func NewInteractor(ctx context.Context, svc *service.TrackerService, store trackerout.DocumentStore, exams trackerout.LegacyExamStore) (trackerin.Usecase, error) {
	now := svc.Now()
	doc, flat, err := store.Load(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	var examEntries []domain.LegacyExamEntry
	migrating := doc.SchemaVersion < domain.SchemaVersion
	if migrating && exams != nil {
		examEntries, err = exams.Load(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("load legacy exams: %w", err)
		}
	}

	prepared, _ := svc.PrepareLoaded(doc, flat, examEntries)
	i := &Interactor{svc: svc, store: store, exams: exams, doc: prepared}

	if migrating && exams != nil {
		if err := exams.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear legacy exams: %w", err)
		}
	}
	if err := i.persist(ctx); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Interactor) persist(ctx context.Context) error {
	return i.store.Save(ctx, i.doc)
}

func (i *Interactor) timerOutput(change domain.TimerChange, now time.Time) dto.TimerOutput {
	out := dto.TimerOutput{
		Changed:        change.Changed,
		Reason:         string(change.Reason),
		Running:        i.doc.Stopwatch.Running,
		ElapsedTodayMS: i.elapsedToday(now),
	}
	if change.Session != nil {
		out.SessionID = change.Session.ID
	}
	if change.Segment != nil {
		out.SegmentID = change.Segment.ID
	}
	return out
}

func (i *Interactor) elapsedToday(now time.Time) int64 {
	if i.doc.StopwatchStudyDate != i.svc.Day().Key(now) {
		return 0
	}
	return i.doc.Stopwatch.ElapsedMS(now)
}

func sessionOutput(sess *domain.Session, reason domain.NoopReason) dto.SessionOutput {
	out := dto.SessionOutput{Changed: reason == "", Reason: string(reason)}
	if sess == nil {
		return out
	}
	out.SessionID = sess.ID
	out.Mode = string(sess.Mode)
	out.StudyDate = sess.StudyDate
	out.Title = sess.Title
	out.StartedAt = sess.StartedAt
	if sess.EndedAt.IsClosed() {
		at := sess.EndedAt.At()
		out.EndedAt = &at
	}
	return out
}

func segmentOutput(seg *domain.Segment, reason domain.NoopReason) dto.SegmentOutput {
	out := dto.SegmentOutput{Changed: reason == "", Reason: string(reason)}
	if seg == nil {
		return out
	}
	out.SegmentID = seg.ID
	out.SessionID = seg.SessionID
	out.Subject = seg.Subject.String()
	out.Kind = string(seg.Kind)
	out.StartedAt = seg.StartedAt
	if seg.EndedAt.IsClosed() {
		at := seg.EndedAt.At()
		out.EndedAt = &at
	}
	return out
}

func subjectOutput(subject *domain.Subject) dto.SubjectOutput {
	return dto.SubjectOutput{ID: subject.ID, Name: subject.Name, Order: subject.Order, Archived: subject.Archived}
}

func questionOutput(rec *domain.QuestionRecord) dto.QuestionOutput {
	return dto.QuestionOutput{
		QuestionID: rec.ID,
		SessionID:  rec.SessionID,
		SegmentID:  rec.SegmentID,
		QuestionNo: rec.QuestionNo,
		DurationMS: rec.DurationMS,
	}
}

// --- timer ---

func (i *Interactor) Start(ctx context.Context) (dto.TimerOutput, error) {
	change := i.svc.Start(&i.doc)
	if change.Changed {
		if err := i.persist(ctx); err != nil {
			return dto.TimerOutput{}, err
		}
	}
	return i.timerOutput(change, i.svc.Now()), nil
}

func (i *Interactor) Pause(ctx context.Context) (dto.TimerOutput, error) {
	change := i.svc.Pause(&i.doc)
	if change.Changed {
		if err := i.persist(ctx); err != nil {
			return dto.TimerOutput{}, err
		}
	}
	return i.timerOutput(change, i.svc.Now()), nil
}

func (i *Interactor) Reset(ctx context.Context) (dto.TimerOutput, error) {
	change := i.svc.Reset(&i.doc)
	if err := i.persist(ctx); err != nil {
		return dto.TimerOutput{}, err
	}
	return i.timerOutput(change, i.svc.Now()), nil
}

func (i *Interactor) SetActiveSubject(ctx context.Context, subjectID string) (dto.TimerOutput, error) {
	if subjectID != "" {
		subject := i.doc.SubjectByID(subjectID)
		if subject == nil || subject.Archived {
			return dto.TimerOutput{}, apperrors.ErrSubjectNotFound
		}
	}
	change := i.svc.SetActiveSubject(&i.doc, subjectID)
	if change.Changed {
		if err := i.persist(ctx); err != nil {
			return dto.TimerOutput{}, err
		}
	}
	return i.timerOutput(change, i.svc.Now()), nil
}

// --- sessions and segments ---

func (i *Interactor) StartSession(ctx context.Context, input dto.StartSessionInput) (dto.SessionOutput, error) {
	meta := domain.SessionMeta{TimeLimitSec: input.TimeLimitSec, TargetQuestions: input.TargetQuestions}
	sess, err := i.svc.StartSession(&i.doc, domain.SessionMode(input.Mode), input.Title, meta)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	if err := i.persist(ctx); err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(sess, ""), nil
}

func (i *Interactor) EndSession(ctx context.Context) (dto.SessionOutput, error) {
	change := i.svc.EndSession(&i.doc)
	if !change.Changed {
		return sessionOutput(nil, change.Reason), nil
	}
	if err := i.persist(ctx); err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(change.Session, ""), nil
}

func (i *Interactor) StartSegment(ctx context.Context, input dto.StartSegmentInput) (dto.SegmentOutput, error) {
	kind := domain.SegmentKind(input.Kind)
	if kind == "" {
		kind = domain.KindSolve
	}
	seg, reason := i.svc.StartSegment(&i.doc, input.SessionID, domain.ParseSubjectRef(input.Subject), kind, input.StartedAt)
	if reason == domain.NoopSessionUnknown {
		return dto.SegmentOutput{}, apperrors.ErrNotFound
	}
	if reason != "" {
		return segmentOutput(seg, reason), nil
	}
	if err := i.persist(ctx); err != nil {
		return dto.SegmentOutput{}, err
	}
	return segmentOutput(seg, ""), nil
}

func (i *Interactor) EndSegment(ctx context.Context, input dto.EndSegmentInput) (dto.SegmentOutput, error) {
	seg, reason := i.svc.EndSegment(&i.doc, input.SegmentID, input.EndedAt)
	if reason == domain.NoopSegmentUnknown {
		return dto.SegmentOutput{}, apperrors.ErrNotFound
	}
	if reason != "" {
		return segmentOutput(seg, reason), nil
	}
	if err := i.persist(ctx); err != nil {
		return dto.SegmentOutput{}, err
	}
	return segmentOutput(seg, ""), nil
}

// --- questions ---

func (i *Interactor) AddQuestion(ctx context.Context, input dto.AddQuestionInput) (dto.QuestionOutput, error) {
	source := domain.QuestionSource(input.Source)
	if source == "" {
		source = domain.SourceManual
	}
	rec, err := i.svc.AddQuestion(&i.doc, input.SessionID, input.SegmentID, domain.ParseSubjectRef(input.Subject), input.DurationMS, input.StartedAt, input.EndedAt, source)
	if err != nil {
		return dto.QuestionOutput{}, apperrors.ErrNotFound
	}
	if err := i.persist(ctx); err != nil {
		return dto.QuestionOutput{}, err
	}
	return questionOutput(rec), nil
}

func (i *Interactor) AddQuestionForActiveSegment(ctx context.Context, input dto.ActiveQuestionInput) (dto.QuestionOutput, error) {
	seg := i.doc.ActiveSegment()
	if seg == nil {
		return dto.QuestionOutput{}, apperrors.ErrNoActiveSegment
	}
	now := i.svc.Now()
	duration := input.DurationMS
	if duration < 0 {
		duration = 0
	}
	started := now.Add(-time.Duration(duration) * time.Millisecond)
	source := domain.QuestionSource(input.Source)
	if source == "" {
		source = domain.SourceTap
	}
	rec, err := i.svc.AddQuestion(&i.doc, seg.SessionID, seg.ID, seg.Subject, duration, started, now, source)
	if err != nil {
		return dto.QuestionOutput{}, err
	}
	if err := i.persist(ctx); err != nil {
		return dto.QuestionOutput{}, err
	}
	return questionOutput(rec), nil
}

func (i *Interactor) UndoLastQuestion(ctx context.Context, segmentID string) (dto.QuestionOutput, error) {
	removed, ok := i.doc.UndoLastQuestion(segmentID)
	if !ok {
		return dto.QuestionOutput{}, apperrors.ErrNotFound
	}
	if err := i.persist(ctx); err != nil {
		return dto.QuestionOutput{}, err
	}
	return questionOutput(&removed), nil
}

// --- external producers ---

func (i *Interactor) IntakeFinishedSession(ctx context.Context, input dto.IntakeInput) (dto.SessionOutput, error) {
	sess, reason := i.doc.IntakeFinishedSession(input.Session, input.Segments, input.Records)
	if reason != "" {
		return sessionOutput(nil, reason), nil
	}
	if err := i.persist(ctx); err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(sess, ""), nil
}

// --- subjects ---

func (i *Interactor) CreateSubject(ctx context.Context, name string) (dto.SubjectOutput, error) {
	subject, err := i.svc.CreateSubject(&i.doc, name)
	if err != nil {
		return dto.SubjectOutput{}, err
	}
	if err := i.persist(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return subjectOutput(subject), nil
}

func (i *Interactor) RenameSubject(ctx context.Context, subjectID, name string) (dto.SubjectOutput, error) {
	subject, ok := i.svc.RenameSubject(&i.doc, subjectID, name)
	if !ok {
		return dto.SubjectOutput{}, apperrors.ErrSubjectNotFound
	}
	if err := i.persist(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return subjectOutput(subject), nil
}

func (i *Interactor) ArchiveSubject(ctx context.Context, subjectID string) (dto.SubjectOutput, error) {
	subject, ok := i.svc.ArchiveSubject(&i.doc, subjectID)
	if !ok {
		return dto.SubjectOutput{}, apperrors.ErrSubjectNotFound
	}
	if err := i.persist(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return subjectOutput(subject), nil
}

func (i *Interactor) ReorderSubject(ctx context.Context, subjectID string, position int) (dto.SubjectOutput, error) {
	subject, ok := i.svc.ReorderSubject(&i.doc, subjectID, position)
	if !ok {
		return dto.SubjectOutput{}, apperrors.ErrSubjectNotFound
	}
	if err := i.persist(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return subjectOutput(subject), nil
}

func (i *Interactor) ListSubjects(_ context.Context, includeArchived bool) ([]dto.SubjectOutput, error) {
	subjects := i.doc.ListSubjects(includeArchived)
	out := make([]dto.SubjectOutput, 0, len(subjects))
	for idx := range subjects {
		out = append(out, subjectOutput(&subjects[idx]))
	}
	return out, nil
}

// --- reads ---

func (i *Interactor) Status(_ context.Context) (dto.StatusOutput, error) {
	now := i.svc.Now()
	out := dto.StatusOutput{
		Running:        i.doc.Stopwatch.Running,
		StudyDate:      i.svc.Day().Key(now),
		ElapsedTodayMS: i.elapsedToday(now),
	}
	if subject := i.doc.SubjectByID(i.doc.ActiveSubjectID); subject != nil {
		s := subjectOutput(subject)
		out.ActiveSubject = &s
	}
	if sess := i.doc.ActiveSession(); sess != nil {
		out.SessionID = sess.ID
	}
	if seg := i.doc.ActiveSegment(); seg != nil {
		out.SegmentID = seg.ID
	}
	return out, nil
}

func (i *Interactor) Snapshot(_ context.Context) (dto.SnapshotOutput, error) {
	now := i.svc.Now()
	cloned := i.doc.Clone()
	return dto.SnapshotOutput{
		Now:             now,
		Subjects:        cloned.Subjects,
		Sessions:        cloned.Sessions,
		Segments:        cloned.Segments,
		Records:         cloned.QuestionRecords,
		ActiveSubjectID: cloned.ActiveSubjectID,
		ElapsedTodayMS:  i.elapsedToday(now),
	}, nil
}

func (i *Interactor) Close(_ context.Context) error {
	return i.store.Close()
}
