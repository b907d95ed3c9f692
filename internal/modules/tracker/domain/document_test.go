package domain_test

import (
	"fmt"
	"testing"
	"time"

	"studylog/internal/modules/tracker/domain"
	"studylog/internal/platform/studyday"
)

type seqIDs struct {
	prefix string
	n      int
}

func (s *seqIDs) New() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func newDocWithSubject(t *testing.T, ids *seqIDs) (domain.Document, string) {
	t.Helper()
	doc := domain.NewDocument()
	subject, err := doc.CreateSubject(at(9, 0), ids, "Algebra")
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	doc.ActiveSubjectID = subject.ID
	return doc, subject.ID
}

func mustHoldInvariants(t *testing.T, doc *domain.Document) {
	t.Helper()
	if err := doc.CheckInvariants(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestStartRequiresSubjectAndIsIdempotent(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc := domain.NewDocument()

	change := doc.Start(at(10, 0), day, ids)
	if change.Changed || change.Reason != domain.NoopNoSubject {
		t.Fatalf("start without subject must be a no-op, got %+v", change)
	}

	doc, _ = newDocWithSubject(t, ids)
	first := doc.Start(at(10, 0), day, ids)
	if !first.Changed || first.Session == nil || first.Segment == nil {
		t.Fatalf("start must open session and segment, got %+v", first)
	}
	second := doc.Start(at(10, 5), day, ids)
	if second.Changed || second.Reason != domain.NoopAlreadyRunning {
		t.Fatalf("second start must be a no-op, got %+v", second)
	}
	mustHoldInvariants(t, &doc)
}

func TestPauseFoldsElapsedAndDoubleInvokeChangesNothing(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	doc.Start(at(10, 0), day, ids)
	pause := doc.Pause(at(10, 25))
	if !pause.Changed {
		t.Fatalf("pause while running must transition")
	}
	if doc.Stopwatch.AccumulatedMS != 25*60*1000 {
		t.Fatalf("accumulated = %d, want 1500000", doc.Stopwatch.AccumulatedMS)
	}
	if doc.ActiveSegment() != nil {
		t.Fatalf("pause must close the active segment")
	}
	if doc.ActiveSession() == nil {
		t.Fatalf("pause must leave the session open")
	}

	before := doc.Clone()
	again := doc.Pause(at(10, 40))
	if again.Changed || again.Reason != domain.NoopAlreadyIdle {
		t.Fatalf("pausing twice must be a no-op, got %+v", again)
	}
	if doc.Stopwatch.AccumulatedMS != before.Stopwatch.AccumulatedMS {
		t.Fatalf("second pause mutated the accumulator")
	}
	if len(doc.Segments) != len(before.Segments) || len(doc.Sessions) != len(before.Sessions) {
		t.Fatalf("second pause mutated entities")
	}
	mustHoldInvariants(t, &doc)
}

func TestStartResumesTodaysSessionAndRollsOverTheDay(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	doc.Start(at(10, 0), day, ids)
	doc.Pause(at(10, 30))
	resumed := doc.Start(at(11, 0), day, ids)
	if len(doc.Sessions) != 1 {
		t.Fatalf("same-day start must reuse the open session, have %d", len(doc.Sessions))
	}
	if resumed.Segment.StartedAt != at(11, 0) {
		t.Fatalf("resume must open a fresh segment")
	}
	doc.Pause(at(11, 30))

	// 02:00 next calendar day is still the same study day.
	sameStudyDay := time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)
	doc.Start(sameStudyDay, day, ids)
	if len(doc.Sessions) != 1 {
		t.Fatalf("02:00 belongs to the same study day, have %d sessions", len(doc.Sessions))
	}
	doc.Pause(sameStudyDay.Add(10 * time.Minute))
	accumulated := doc.Stopwatch.AccumulatedMS

	// 07:00 crosses the boundary: new session, accumulator reset.
	nextDay := time.Date(2026, 3, 15, 7, 0, 0, 0, time.UTC)
	change := doc.Start(nextDay, day, ids)
	if len(doc.Sessions) != 2 {
		t.Fatalf("new study day must open a new session, have %d", len(doc.Sessions))
	}
	if change.Session.StudyDate != "2026-03-15" {
		t.Fatalf("new session study date = %s", change.Session.StudyDate)
	}
	if doc.Stopwatch.AccumulatedMS != 0 {
		t.Fatalf("day rollover must reset the accumulator (was %d, carried %d)", doc.Stopwatch.AccumulatedMS, accumulated)
	}
	if prev := doc.Sessions[0]; !prev.EndedAt.IsClosed() {
		t.Fatalf("previous session must be closed on rollover")
	}
	mustHoldInvariants(t, &doc)
}

func TestSwitchSubjectWhileRunningSplitsSegmentsWithoutLosingTime(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)
	second, err := doc.CreateSubject(at(9, 1), ids, "Geometry")
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}

	doc.Start(at(10, 0), day, ids)
	segmentsBefore := len(doc.Segments)

	change := doc.SetActiveSubject(at(10, 20), ids, second.ID)
	if !change.Changed {
		t.Fatalf("switch must transition")
	}
	if len(doc.Segments) != segmentsBefore+1 {
		t.Fatalf("switch must close one segment and open exactly one, have %d", len(doc.Segments))
	}
	closed := doc.Segments[segmentsBefore-1]
	opened := doc.Segments[segmentsBefore]
	if !closed.EndedAt.IsClosed() || !closed.EndedAt.At().Equal(at(10, 20)) {
		t.Fatalf("previous segment must close at the switch instant")
	}
	if !opened.StartedAt.Equal(at(10, 20)) {
		t.Fatalf("new segment must start at the switch instant")
	}
	if !doc.Stopwatch.Running {
		t.Fatalf("switch must not touch the run state")
	}

	doc.Pause(at(10, 50))
	total := closed.Duration(at(10, 50)) + doc.Segments[segmentsBefore].Duration(at(10, 50))
	if total != 50*time.Minute {
		t.Fatalf("no time may be lost or duplicated across the switch, got %v", total)
	}

	same := doc.SetActiveSubject(at(10, 55), ids, second.ID)
	if same.Changed || same.Reason != domain.NoopSameSubject {
		t.Fatalf("re-selecting the active subject must be a no-op")
	}
	mustHoldInvariants(t, &doc)
}

func TestResetClearsSessionSegmentAndStopwatch(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	doc.Start(at(10, 0), day, ids)
	doc.Reset(at(10, 42), day)
	if doc.ActiveSession() != nil || doc.ActiveSegment() != nil {
		t.Fatalf("reset must close session and segment")
	}
	if doc.Stopwatch.Running || doc.Stopwatch.AccumulatedMS != 0 {
		t.Fatalf("reset must zero the stopwatch: %+v", doc.Stopwatch)
	}
	if doc.StopwatchStudyDate != "2026-03-14" {
		t.Fatalf("reset must pin the stopwatch to the current study day, got %s", doc.StopwatchStudyDate)
	}
	mustHoldInvariants(t, &doc)
}

func TestMockExamSessionFoldsIntoDailyAccumulatorOnEnd(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	doc.Start(at(9, 30), day, ids)
	doc.Pause(at(10, 0))
	base := doc.Stopwatch.AccumulatedMS

	sess, err := doc.StartSession(at(13, 0), day, ids, domain.ModeMockExam, "Mock #3", domain.SessionMeta{TimeLimitSec: 6000, TargetQuestions: 20})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sess.Mode != domain.ModeMockExam || sess.StudyDate != "2026-03-14" {
		t.Fatalf("unexpected session %+v", sess)
	}
	seg, reason := doc.StartSegment(at(13, 0), ids, sess.ID, domain.RealSubject(doc.ActiveSubjectID), domain.KindSolve, time.Time{})
	if reason != "" {
		t.Fatalf("start segment: %s", reason)
	}
	if _, err := doc.AddQuestion(ids, sess.ID, seg.ID, seg.Subject, 90000, at(13, 0), at(13, 1), domain.SourceFinish); err != nil {
		t.Fatalf("add question: %v", err)
	}

	end := doc.EndSession(at(14, 40), day)
	if !end.Changed {
		t.Fatalf("end session must transition")
	}
	want := base + 100*60*1000
	if doc.Stopwatch.AccumulatedMS != want {
		t.Fatalf("mock-exam time must fold into the daily total: %d, want %d", doc.Stopwatch.AccumulatedMS, want)
	}

	again := doc.EndSession(at(14, 41), day)
	if again.Changed || again.Reason != domain.NoopNoOpenSession {
		t.Fatalf("ending with nothing open must be a no-op, got %+v", again)
	}
	mustHoldInvariants(t, &doc)
}

func TestStartSessionWhileRunningPausesTheAmbientClockFirst(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	doc.Start(at(10, 0), day, ids)
	if _, err := doc.StartSession(at(10, 30), day, ids, domain.ModeMockExam, "", domain.SessionMeta{}); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if doc.Stopwatch.Running {
		t.Fatalf("ambient stopwatch must stop before an explicit session")
	}
	if doc.Stopwatch.AccumulatedMS != 30*60*1000 {
		t.Fatalf("ambient time must be folded, got %d", doc.Stopwatch.AccumulatedMS)
	}
	mustHoldInvariants(t, &doc)
}

func TestQuestionNumberingIsSegmentLocalAndUndoTargetsTheLatest(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	start := doc.Start(at(10, 0), day, ids)
	seg := start.Segment
	for i := 0; i < 3; i++ {
		begin := at(10, 5*i)
		rec, err := doc.AddQuestion(ids, seg.SessionID, seg.ID, seg.Subject, 60000, begin, begin.Add(time.Minute), domain.SourceTap)
		if err != nil {
			t.Fatalf("add question %d: %v", i, err)
		}
		if rec.QuestionNo != i+1 {
			t.Fatalf("question %d numbered %d", i, rec.QuestionNo)
		}
	}

	removed, ok := doc.UndoLastQuestion(seg.ID)
	if !ok || removed.QuestionNo != 3 {
		t.Fatalf("undo must remove the latest record, got %+v ok=%v", removed, ok)
	}
	rec, err := doc.AddQuestion(ids, seg.SessionID, seg.ID, seg.Subject, 30000, at(10, 15), at(10, 16), domain.SourceTap)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if rec.QuestionNo != 3 {
		t.Fatalf("numbering must stay contiguous after undo, got %d", rec.QuestionNo)
	}

	if _, ok := doc.UndoLastQuestion("missing-segment"); ok {
		t.Fatalf("undo on an unknown segment must report absence")
	}
	if _, err := doc.AddQuestion(ids, "s", "missing-segment", seg.Subject, 0, at(10, 0), at(10, 1), domain.SourceTap); err == nil {
		t.Fatalf("adding to an unknown segment must fail")
	}
	mustHoldInvariants(t, &doc)
}

func TestRecoverClosesDanglingStateWithoutCountingDowntime(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	day := studyday.Default()
	doc, _ := newDocWithSubject(t, ids)

	doc.Start(at(10, 0), day, ids)
	doc.Pause(at(10, 30))
	doc.Start(at(11, 0), day, ids)
	accumulated := doc.Stopwatch.AccumulatedMS

	// Simulates a process crash: the clock is still marked running
	// and one session and one segment are open.
	report := doc.Recover()
	if !report.StoppedRunning || report.ClosedSegments != 1 || report.ClosedSessions != 1 {
		t.Fatalf("unexpected recovery report %+v", report)
	}
	if doc.Stopwatch.Running {
		t.Fatalf("recovery must force the stopwatch idle")
	}
	if doc.Stopwatch.AccumulatedMS != accumulated {
		t.Fatalf("recovery must not credit downtime: %d, want %d", doc.Stopwatch.AccumulatedMS, accumulated)
	}
	for _, seg := range doc.Segments {
		if !seg.EndedAt.IsClosed() {
			t.Fatalf("segment %s still open after recovery", seg.ID)
		}
	}
	last := doc.Segments[len(doc.Segments)-1]
	if !last.EndedAt.At().Equal(last.StartedAt) {
		t.Fatalf("dangling segment must close at its own start, got %v", last.EndedAt.At())
	}
	sess := doc.Sessions[len(doc.Sessions)-1]
	if !sess.EndedAt.At().Equal(sess.StartedAt) {
		t.Fatalf("dangling session must close at its own start")
	}

	// Idempotent on an already-clean document.
	if again := doc.Recover(); again != (domain.RecoveryReport{}) {
		t.Fatalf("second recovery must find nothing, got %+v", again)
	}
}

func TestIntakeFinishedSessionRenumbersAndDeduplicates(t *testing.T) {
	t.Parallel()
	doc := domain.NewDocument()

	session := domain.Session{
		ID:        "room-1",
		Mode:      domain.ModeMockExam,
		StudyDate: "2026-03-14",
		StartedAt: at(15, 0),
		EndedAt:   domain.Open(),
	}
	segment := domain.Segment{
		ID:        "room-1-seg",
		SessionID: "room-1",
		Subject:   domain.RoomExamBucket(),
		Kind:      domain.KindSolve,
		StartedAt: at(15, 0),
		EndedAt:   domain.Open(),
	}
	records := []domain.QuestionRecord{
		{ID: "r2", SessionID: "room-1", SegmentID: "room-1-seg", Subject: domain.RoomExamBucket(), QuestionNo: 9, DurationMS: 60000, StartedAt: at(15, 1), EndedAt: at(15, 2), Source: domain.SourceFinish},
		{ID: "r1", SessionID: "room-1", SegmentID: "room-1-seg", Subject: domain.RoomExamBucket(), QuestionNo: 7, DurationMS: 60000, StartedAt: at(15, 0), EndedAt: at(15, 1), Source: domain.SourceFinish},
	}

	stored, reason := doc.IntakeFinishedSession(session, []domain.Segment{segment}, records)
	if reason != "" || stored == nil {
		t.Fatalf("intake failed: %s", reason)
	}
	if !stored.EndedAt.IsClosed() || !stored.EndedAt.At().Equal(at(15, 2)) {
		t.Fatalf("intake must close the session at the latest record end, got %+v", stored.EndedAt)
	}
	if doc.QuestionRecords[0].QuestionNo != 1 || doc.QuestionRecords[1].QuestionNo != 2 {
		t.Fatalf("intake must renumber records chronologically: %+v", doc.QuestionRecords)
	}
	if doc.QuestionRecords[0].ID != "r1" {
		t.Fatalf("records must be ordered by start time")
	}

	_, reason = doc.IntakeFinishedSession(session, nil, nil)
	if reason != domain.NoopDuplicateIntake {
		t.Fatalf("duplicate intake must be a no-op, got %q", reason)
	}
	mustHoldInvariants(t, &doc)
}

func TestSubjectLifecycle(t *testing.T) {
	t.Parallel()
	ids := &seqIDs{prefix: "id"}
	doc := domain.NewDocument()

	first, err := doc.CreateSubject(at(9, 0), ids, "  Algebra  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Name != "Algebra" || first.Order != 1 {
		t.Fatalf("unexpected subject %+v", first)
	}
	if _, err := doc.CreateSubject(at(9, 0), ids, "   "); err == nil {
		t.Fatalf("blank name must fail")
	}
	second, _ := doc.CreateSubject(at(9, 1), ids, "Geometry")
	third, _ := doc.CreateSubject(at(9, 2), ids, "History")

	if _, ok := doc.RenameSubject(at(9, 3), "nope", "X"); ok {
		t.Fatalf("renaming an unknown subject must report absence")
	}
	if renamed, ok := doc.RenameSubject(at(9, 3), second.ID, "Geometry II"); !ok || renamed.Name != "Geometry II" {
		t.Fatalf("rename failed: %+v", renamed)
	}

	if _, ok := doc.ReorderSubject(at(9, 4), third.ID, 1); !ok {
		t.Fatalf("reorder failed")
	}
	names := []string{}
	for _, s := range doc.ListSubjects(false) {
		names = append(names, s.Name)
	}
	if names[0] != "History" || names[1] != "Algebra" || names[2] != "Geometry II" {
		t.Fatalf("unexpected order %v", names)
	}

	doc.ActiveSubjectID = first.ID
	if _, ok := doc.ArchiveSubject(at(9, 5), first.ID); !ok {
		t.Fatalf("archive failed")
	}
	if doc.ActiveSubjectID != "" {
		t.Fatalf("archiving the active subject must clear the selection")
	}
	if got := len(doc.ListSubjects(false)); got != 2 {
		t.Fatalf("archived subject must be hidden, got %d", got)
	}
	if got := len(doc.ListSubjects(true)); got != 3 {
		t.Fatalf("archived subject must remain in the table, got %d", got)
	}
}
