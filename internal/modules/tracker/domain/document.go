package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"studylog/internal/platform/id"
	"studylog/internal/platform/studyday"
)

const SchemaVersion = 2

// Document is the persisted entity log plus the timer state. All
// mutations go through its transition methods; each takes "now" exactly
// once and never reads wall-clock time itself.
type Document struct {
	SchemaVersion      int              `json:"schema_version"`
	Subjects           []Subject        `json:"subjects"`
	Stopwatch          Stopwatch        `json:"stopwatch"`
	StopwatchStudyDate string           `json:"stopwatch_study_date"`
	Sessions           []Session        `json:"sessions"`
	Segments           []Segment        `json:"segments"`
	QuestionRecords    []QuestionRecord `json:"question_records"`
	ActiveSubjectID    string           `json:"active_subject_id"`
}

func NewDocument() Document {
	return Document{SchemaVersion: SchemaVersion}
}

// Clone returns an independent copy for read-model builders.
func (d *Document) Clone() Document {
	payload, _ := json.Marshal(d)
	cloned := Document{}
	_ = json.Unmarshal(payload, &cloned)
	return cloned
}

// NoopReason explains why a transition left the document unchanged.
type NoopReason string

const (
	NoopAlreadyRunning  NoopReason = "stopwatch already running"
	NoopAlreadyIdle     NoopReason = "stopwatch already idle"
	NoopNoSubject       NoopReason = "no subject selected"
	NoopSameSubject     NoopReason = "subject already active"
	NoopNoOpenSession   NoopReason = "no session in progress"
	NoopSessionClosed   NoopReason = "session already closed"
	NoopSegmentClosed   NoopReason = "segment already closed"
	NoopSessionUnknown  NoopReason = "session not found"
	NoopSegmentUnknown  NoopReason = "segment not found"
	NoopDuplicateIntake NoopReason = "session already recorded"
	NoopInvalidMode     NoopReason = "unknown session mode"
)

// TimerChange reports the outcome of a timer transition. Reason is set
// only when nothing changed.
type TimerChange struct {
	Changed bool
	Reason  NoopReason
	Session *Session
	Segment *Segment
}

func noopChange(reason NoopReason) TimerChange {
	return TimerChange{Reason: reason}
}

// --- lookups ---

func (d *Document) ActiveSession() *Session {
	for i := range d.Sessions {
		if !d.Sessions[i].EndedAt.IsClosed() {
			return &d.Sessions[i]
		}
	}
	return nil
}

func (d *Document) ActiveSegment() *Segment {
	for i := range d.Segments {
		if !d.Segments[i].EndedAt.IsClosed() {
			return &d.Segments[i]
		}
	}
	return nil
}

func (d *Document) SubjectByID(subjectID string) *Subject {
	for i := range d.Subjects {
		if d.Subjects[i].ID == subjectID {
			return &d.Subjects[i]
		}
	}
	return nil
}

func (d *Document) SessionByID(sessionID string) *Session {
	for i := range d.Sessions {
		if d.Sessions[i].ID == sessionID {
			return &d.Sessions[i]
		}
	}
	return nil
}

func (d *Document) SegmentByID(segmentID string) *Segment {
	for i := range d.Segments {
		if d.Segments[i].ID == segmentID {
			return &d.Segments[i]
		}
	}
	return nil
}

func (d *Document) questionCount(segmentID string) int {
	n := 0
	for i := range d.QuestionRecords {
		if d.QuestionRecords[i].SegmentID == segmentID {
			n++
		}
	}
	return n
}

func (d *Document) closeOpenSegment(at time.Time) *Segment {
	seg := d.ActiveSegment()
	if seg == nil {
		return nil
	}
	seg.EndedAt = ClosedAt(at)
	return seg
}

func (d *Document) closeOpenSession(at time.Time) *Session {
	sess := d.ActiveSession()
	if sess == nil {
		return nil
	}
	sess.EndedAt = ClosedAt(at)
	return sess
}

func (d *Document) rollStopwatchDay(today string) {
	if d.StopwatchStudyDate != today {
		d.Stopwatch.AccumulatedMS = 0
		d.StopwatchStudyDate = today
	}
}

// --- timer transitions ---

// Start runs the ambient stopwatch. It reuses the open problem-solving
// session for today when one exists, otherwise closes whatever session
// is open and starts a new one. A fresh segment for the active subject
// is always opened.
func (d *Document) Start(now time.Time, day studyday.Clock, ids id.Generator) TimerChange {
	if d.Stopwatch.Running {
		return noopChange(NoopAlreadyRunning)
	}
	if d.ActiveSubjectID == "" {
		return noopChange(NoopNoSubject)
	}

	today := day.Key(now)
	d.rollStopwatchDay(today)

	sess := d.ActiveSession()
	if sess == nil || sess.Mode != ModeProblemSolving || sess.StudyDate != today {
		d.closeOpenSegment(now)
		d.closeOpenSession(now)
		d.Sessions = append(d.Sessions, Session{
			ID:        ids.New(),
			Mode:      ModeProblemSolving,
			StudyDate: today,
			StartedAt: now,
			EndedAt:   Open(),
		})
		sess = &d.Sessions[len(d.Sessions)-1]
	} else {
		// Stale open segment from an interrupted run must not leak
		// into the new one.
		d.closeOpenSegment(now)
	}

	d.Segments = append(d.Segments, Segment{
		ID:        ids.New(),
		SessionID: sess.ID,
		Subject:   RealSubject(d.ActiveSubjectID),
		Kind:      KindStudy,
		StartedAt: now,
		EndedAt:   Open(),
	})
	d.Stopwatch.Running = true
	d.Stopwatch.StartedAt = now
	return TimerChange{Changed: true, Session: sess, Segment: &d.Segments[len(d.Segments)-1]}
}

// Pause folds the live run into the daily accumulator and closes the
// active segment. The session stays open.
func (d *Document) Pause(now time.Time) TimerChange {
	if !d.Stopwatch.Running {
		return noopChange(NoopAlreadyIdle)
	}
	if elapsed := now.Sub(d.Stopwatch.StartedAt); elapsed > 0 {
		d.Stopwatch.AccumulatedMS += elapsed.Milliseconds()
	}
	seg := d.closeOpenSegment(now)
	d.Stopwatch.Running = false
	d.Stopwatch.StartedAt = time.Time{}
	return TimerChange{Changed: true, Session: d.ActiveSession(), Segment: seg}
}

// Reset force-closes the active segment and session and zeroes the
// stopwatch for the current study day.
func (d *Document) Reset(now time.Time, day studyday.Clock) TimerChange {
	seg := d.closeOpenSegment(now)
	sess := d.closeOpenSession(now)
	d.Stopwatch = Stopwatch{}
	d.StopwatchStudyDate = day.Key(now)
	return TimerChange{Changed: true, Session: sess, Segment: seg}
}

// SetActiveSubject switches subjects. While the clock is running it
// closes the current segment and, inside an open problem-solving
// session, opens a new one for the new subject so no already-spent time
// is relabeled.
func (d *Document) SetActiveSubject(now time.Time, ids id.Generator, subjectID string) TimerChange {
	if subjectID == d.ActiveSubjectID {
		return noopChange(NoopSameSubject)
	}
	d.ActiveSubjectID = subjectID
	if !d.Stopwatch.Running {
		return TimerChange{Changed: true}
	}
	d.closeOpenSegment(now)
	sess := d.ActiveSession()
	if sess == nil || sess.Mode != ModeProblemSolving || subjectID == "" {
		return TimerChange{Changed: true, Session: sess}
	}
	d.Segments = append(d.Segments, Segment{
		ID:        ids.New(),
		SessionID: sess.ID,
		Subject:   RealSubject(subjectID),
		Kind:      KindStudy,
		StartedAt: now,
		EndedAt:   Open(),
	})
	return TimerChange{Changed: true, Session: sess, Segment: &d.Segments[len(d.Segments)-1]}
}

// --- explicit session control ---

// StartSession opens an explicit session (e.g. a timed mock exam). Any
// live ambient run is folded and stopped first so its time is not
// counted twice.
func (d *Document) StartSession(now time.Time, day studyday.Clock, ids id.Generator, mode SessionMode, title string, meta SessionMeta) (*Session, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if d.Stopwatch.Running {
		d.Pause(now)
	}
	d.closeOpenSegment(now)
	d.closeOpenSession(now)
	d.Sessions = append(d.Sessions, Session{
		ID:        ids.New(),
		Mode:      mode,
		StudyDate: day.Key(now),
		Title:     title,
		StartedAt: now,
		EndedAt:   Open(),
		Meta:      meta,
	})
	return &d.Sessions[len(d.Sessions)-1], nil
}

// EndSession closes the active segment and session. A finished mock
// exam's elapsed time counts toward the daily total even though it ran
// outside the ambient problem-solving session.
func (d *Document) EndSession(now time.Time, day studyday.Clock) TimerChange {
	sess := d.ActiveSession()
	if sess == nil {
		return noopChange(NoopNoOpenSession)
	}
	seg := d.closeOpenSegment(now)
	sess.EndedAt = ClosedAt(now)
	if sess.Mode == ModeMockExam {
		d.rollStopwatchDay(day.Key(now))
		if elapsed := now.Sub(sess.StartedAt); elapsed > 0 {
			d.Stopwatch.AccumulatedMS += elapsed.Milliseconds()
		}
	}
	return TimerChange{Changed: true, Session: sess, Segment: seg}
}

// StartSegment opens a segment inside an open session, closing the
// previous one. A zero startedAt means "now".
func (d *Document) StartSegment(now time.Time, ids id.Generator, sessionID string, subject SubjectRef, kind SegmentKind, startedAt time.Time) (*Segment, NoopReason) {
	sess := d.SessionByID(sessionID)
	if sess == nil {
		return nil, NoopSessionUnknown
	}
	if sess.EndedAt.IsClosed() {
		return nil, NoopSessionClosed
	}
	at := startedAt
	if at.IsZero() {
		at = now
	}
	d.closeOpenSegment(at)
	d.Segments = append(d.Segments, Segment{
		ID:        ids.New(),
		SessionID: sessionID,
		Subject:   subject,
		Kind:      kind,
		StartedAt: at,
		EndedAt:   Open(),
	})
	return &d.Segments[len(d.Segments)-1], ""
}

// EndSegment closes one segment by id. A zero endedAt means "now".
func (d *Document) EndSegment(now time.Time, segmentID string, endedAt time.Time) (*Segment, NoopReason) {
	seg := d.SegmentByID(segmentID)
	if seg == nil {
		return nil, NoopSegmentUnknown
	}
	if seg.EndedAt.IsClosed() {
		return seg, NoopSegmentClosed
	}
	at := endedAt
	if at.IsZero() {
		at = now
	}
	seg.EndedAt = ClosedAt(at)
	return seg, ""
}

// --- question records ---

// AddQuestion appends one lap. The question number is always the count
// of records already in the segment plus one; numbering supplied by
// callers is ignored so the 1..N run stays contiguous.
func (d *Document) AddQuestion(ids id.Generator, sessionID, segmentID string, subject SubjectRef, durationMS int64, startedAt, endedAt time.Time, source QuestionSource) (*QuestionRecord, error) {
	if d.SegmentByID(segmentID) == nil {
		return nil, fmt.Errorf("segment %s: not found", segmentID)
	}
	if durationMS < 0 {
		durationMS = 0
	}
	d.QuestionRecords = append(d.QuestionRecords, QuestionRecord{
		ID:         ids.New(),
		SessionID:  sessionID,
		SegmentID:  segmentID,
		Subject:    subject,
		QuestionNo: d.questionCount(segmentID) + 1,
		DurationMS: durationMS,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		Source:     source,
	})
	return &d.QuestionRecords[len(d.QuestionRecords)-1], nil
}

// UndoLastQuestion removes the most recently started record in the
// segment. The remaining records keep their numbers: removal only ever
// targets the latest, so the 1..N run stays contiguous.
func (d *Document) UndoLastQuestion(segmentID string) (QuestionRecord, bool) {
	last := -1
	for i := range d.QuestionRecords {
		if d.QuestionRecords[i].SegmentID != segmentID {
			continue
		}
		if last < 0 || d.QuestionRecords[i].StartedAt.After(d.QuestionRecords[last].StartedAt) {
			last = i
		}
	}
	if last < 0 {
		return QuestionRecord{}, false
	}
	removed := d.QuestionRecords[last]
	d.QuestionRecords = append(d.QuestionRecords[:last], d.QuestionRecords[last+1:]...)
	return removed, true
}

// --- external producers ---

// IntakeFinishedSession appends a finished session produced elsewhere
// (room exams). Records are renumbered per segment; an already-known
// session id is a silent no-op.
func (d *Document) IntakeFinishedSession(session Session, segments []Segment, records []QuestionRecord) (*Session, NoopReason) {
	if err := session.Mode.Validate(); err != nil {
		return nil, NoopInvalidMode
	}
	if d.SessionByID(session.ID) != nil {
		return nil, NoopDuplicateIntake
	}
	if !session.EndedAt.IsClosed() {
		latest := session.StartedAt
		for _, seg := range segments {
			if end := seg.EndedAt.Or(seg.StartedAt); end.After(latest) {
				latest = end
			}
		}
		for _, rec := range records {
			if rec.EndedAt.After(latest) {
				latest = rec.EndedAt
			}
		}
		session.EndedAt = ClosedAt(latest)
	}
	d.Sessions = append(d.Sessions, session)
	for _, seg := range segments {
		if !seg.EndedAt.IsClosed() {
			seg.EndedAt = ClosedAt(session.EndedAt.At())
		}
		d.Segments = append(d.Segments, seg)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StartedAt.Before(records[j].StartedAt) })
	for _, rec := range records {
		rec.QuestionNo = d.questionCount(rec.SegmentID) + 1
		d.QuestionRecords = append(d.QuestionRecords, rec)
	}
	return d.SessionByID(session.ID), ""
}

// --- crash recovery ---

// RecoveryReport says what Recover had to repair.
type RecoveryReport struct {
	StoppedRunning bool
	ClosedSegments int
	ClosedSessions int
}

// Recover normalizes a freshly loaded document. A stopwatch left
// running is forced idle without crediting the gap, and dangling open
// segments and sessions are closed at their own start: unexplained
// downtime must never become counted study time.
func (d *Document) Recover() RecoveryReport {
	report := RecoveryReport{}
	if d.Stopwatch.Running {
		d.Stopwatch.Running = false
		d.Stopwatch.StartedAt = time.Time{}
		report.StoppedRunning = true
	}
	for i := range d.Segments {
		if !d.Segments[i].EndedAt.IsClosed() {
			d.Segments[i].EndedAt = ClosedAt(d.Segments[i].StartedAt)
			report.ClosedSegments++
		}
	}
	for i := range d.Sessions {
		if !d.Sessions[i].EndedAt.IsClosed() {
			d.Sessions[i].EndedAt = ClosedAt(d.Sessions[i].StartedAt)
			report.ClosedSessions++
		}
	}
	return report
}

// --- subjects ---

func (d *Document) CreateSubject(now time.Time, ids id.Generator, name string) (*Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("subject name is required")
	}
	order := 0
	for i := range d.Subjects {
		if d.Subjects[i].Order > order {
			order = d.Subjects[i].Order
		}
	}
	d.Subjects = append(d.Subjects, Subject{
		ID:        ids.New(),
		Name:      name,
		Order:     order + 1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return &d.Subjects[len(d.Subjects)-1], nil
}

func (d *Document) RenameSubject(now time.Time, subjectID, name string) (*Subject, bool) {
	name = strings.TrimSpace(name)
	subject := d.SubjectByID(subjectID)
	if subject == nil || name == "" {
		return nil, false
	}
	subject.Name = name
	subject.UpdatedAt = now
	return subject, true
}

// ArchiveSubject soft-deletes; historical segments keep the reference.
// The archived subject also stops being the active one.
func (d *Document) ArchiveSubject(now time.Time, subjectID string) (*Subject, bool) {
	subject := d.SubjectByID(subjectID)
	if subject == nil {
		return nil, false
	}
	subject.Archived = true
	subject.UpdatedAt = now
	if d.ActiveSubjectID == subjectID {
		d.ActiveSubjectID = ""
	}
	return subject, true
}

// ReorderSubject moves a subject to position pos (1-based) among the
// non-archived subjects and renumbers the rest sequentially.
func (d *Document) ReorderSubject(now time.Time, subjectID string, pos int) (*Subject, bool) {
	target := d.SubjectByID(subjectID)
	if target == nil || target.Archived {
		return nil, false
	}
	active := make([]*Subject, 0, len(d.Subjects))
	for i := range d.Subjects {
		if !d.Subjects[i].Archived && d.Subjects[i].ID != subjectID {
			active = append(active, &d.Subjects[i])
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Order < active[j].Order })
	if pos < 1 {
		pos = 1
	}
	if pos > len(active)+1 {
		pos = len(active) + 1
	}
	ordered := make([]*Subject, 0, len(active)+1)
	ordered = append(ordered, active[:pos-1]...)
	ordered = append(ordered, target)
	ordered = append(ordered, active[pos-1:]...)
	for i, subject := range ordered {
		subject.Order = i + 1
	}
	target.UpdatedAt = now
	return target, true
}

func (d *Document) ListSubjects(includeArchived bool) []Subject {
	out := make([]Subject, 0, len(d.Subjects))
	for _, subject := range d.Subjects {
		if subject.Archived && !includeArchived {
			continue
		}
		out = append(out, subject)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// --- invariants ---

// CheckInvariants verifies the structural guarantees the transitions
// are supposed to uphold. Tests treat any violation as a defect.
func (d *Document) CheckInvariants() error {
	openSessions := 0
	var openSessionID string
	for _, sess := range d.Sessions {
		if !sess.EndedAt.IsClosed() {
			openSessions++
			openSessionID = sess.ID
		}
	}
	if openSessions > 1 {
		return fmt.Errorf("%d sessions in progress, want at most 1", openSessions)
	}

	openSegments := 0
	for _, seg := range d.Segments {
		if !seg.EndedAt.IsClosed() {
			openSegments++
			if seg.SessionID != openSessionID {
				return fmt.Errorf("open segment %s does not belong to the open session", seg.ID)
			}
		}
		sess := d.SessionByID(seg.SessionID)
		if sess == nil {
			return fmt.Errorf("segment %s references unknown session %s", seg.ID, seg.SessionID)
		}
		if seg.StartedAt.Before(sess.StartedAt) {
			return fmt.Errorf("segment %s starts before its session", seg.ID)
		}
		if seg.EndedAt.IsClosed() && sess.EndedAt.IsClosed() && seg.EndedAt.At().After(sess.EndedAt.At()) {
			return fmt.Errorf("segment %s ends after its session", seg.ID)
		}
	}
	if openSegments > 1 {
		return fmt.Errorf("%d segments in progress, want at most 1", openSegments)
	}

	bySegment := map[string][]QuestionRecord{}
	for _, rec := range d.QuestionRecords {
		bySegment[rec.SegmentID] = append(bySegment[rec.SegmentID], rec)
	}
	for segmentID, recs := range bySegment {
		sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.Before(recs[j].StartedAt) })
		for i, rec := range recs {
			if rec.QuestionNo != i+1 {
				return fmt.Errorf("segment %s: question %d numbered %d", segmentID, i+1, rec.QuestionNo)
			}
		}
	}
	return nil
}
