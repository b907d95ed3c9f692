package domain

import (
	"sort"
	"strings"
	"time"

	"studylog/internal/platform/id"
	"studylog/internal/platform/studyday"
)

// Thresholds tune the legacy boundary inference.
type Thresholds struct {
	SessionGap time.Duration
	SegmentGap time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SessionGap: 90 * time.Minute,
		SegmentGap: 12 * time.Minute,
	}
}

// InferMode reads the session mode out of a legacy identifier.
func InferMode(tag string) SessionMode {
	if strings.Contains(strings.ToLower(tag), "exam") {
		return ModeMockExam
	}
	return ModeProblemSolving
}

// ReplayCursor is the rolling state the boundary heuristic looks at:
// where the previous record left off.
type ReplayCursor struct {
	HasSession bool
	HasSegment bool
	Mode       SessionMode
	Day        string
	SubjectID  string
	PrevEnd    time.Time
	LastNo     int
}

// BoundaryDecision says what a legacy record opens.
type BoundaryDecision struct {
	NewSession bool
	NewSegment bool
	Mode       SessionMode
}

// DecideBoundary applies the v1 boundary heuristic to one record. A
// session break implies a segment break. A legacy question number that
// does not strictly increase is proof of a new segment even when
// subject and timing look continuous.
func DecideBoundary(cursor ReplayCursor, rec LegacyFlatRecord, day studyday.Clock, th Thresholds) BoundaryDecision {
	mode := InferMode(rec.Tag)
	decision := BoundaryDecision{Mode: mode}

	switch {
	case !cursor.HasSession:
		decision.NewSession = true
	case mode != cursor.Mode:
		decision.NewSession = true
	case day.Key(rec.StartedAt) != cursor.Day:
		decision.NewSession = true
	case rec.StartedAt.Sub(cursor.PrevEnd) > th.SessionGap:
		decision.NewSession = true
	}
	if decision.NewSession {
		decision.NewSegment = true
		return decision
	}

	switch {
	case !cursor.HasSegment:
		decision.NewSegment = true
	case rec.SubjectID != cursor.SubjectID:
		decision.NewSegment = true
	case rec.StartedAt.Sub(cursor.PrevEnd) > th.SegmentGap:
		decision.NewSegment = true
	case rec.QuestionNo <= cursor.LastNo:
		decision.NewSegment = true
	}
	return decision
}

// ReplayFlatLog reconstructs the session/segment hierarchy from the v1
// flat log. Records are renumbered segment-locally; the legacy numbers
// only feed the boundary heuristic. Segment ends are the latest record
// end they contain, session ends the latest of their segments.
func ReplayFlatLog(records []LegacyFlatRecord, day studyday.Clock, th Thresholds, ids id.Generator) ([]Session, []Segment, []QuestionRecord) {
	if len(records) == 0 {
		return nil, nil, nil
	}
	sorted := make([]LegacyFlatRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartedAt.Before(sorted[j].StartedAt) })

	var (
		sessions []Session
		segments []Segment
		out      []QuestionRecord
		cursor   ReplayCursor
		segCount int
	)
	for _, rec := range sorted {
		decision := DecideBoundary(cursor, rec, day, th)
		if decision.NewSession {
			sessions = append(sessions, Session{
				ID:        ids.New(),
				Mode:      decision.Mode,
				StudyDate: day.Key(rec.StartedAt),
				StartedAt: rec.StartedAt,
				EndedAt:   ClosedAt(rec.EndedAt),
			})
		}
		session := &sessions[len(sessions)-1]
		if decision.NewSegment {
			segments = append(segments, Segment{
				ID:        ids.New(),
				SessionID: session.ID,
				Subject:   ParseSubjectRef(rec.SubjectID),
				Kind:      KindSolve,
				StartedAt: rec.StartedAt,
				EndedAt:   ClosedAt(rec.EndedAt),
			})
			segCount = 0
		}
		segment := &segments[len(segments)-1]

		recID := rec.ID
		if recID == "" {
			recID = ids.New()
		}
		segCount++
		out = append(out, QuestionRecord{
			ID:         recID,
			SessionID:  session.ID,
			SegmentID:  segment.ID,
			Subject:    segment.Subject,
			QuestionNo: segCount,
			DurationMS: rec.DurationMS,
			StartedAt:  rec.StartedAt,
			EndedAt:    rec.EndedAt,
			Source:     SourceManual,
		})

		if rec.EndedAt.After(segment.EndedAt.At()) {
			segment.EndedAt = ClosedAt(rec.EndedAt)
		}
		if segment.EndedAt.At().After(session.EndedAt.At()) {
			session.EndedAt = ClosedAt(segment.EndedAt.At())
		}

		cursor = ReplayCursor{
			HasSession: true,
			HasSegment: true,
			Mode:       decision.Mode,
			Day:        session.StudyDate,
			SubjectID:  rec.SubjectID,
			PrevEnd:    rec.EndedAt,
			LastNo:     rec.QuestionNo,
		}
	}
	return sessions, segments, out
}

// ConvertLegacyExams turns each ad-hoc exam entry into one mock-exam
// session with a single legacy-category segment whose laps become
// sequential records, their times accumulated from the session start.
func ConvertLegacyExams(entries []LegacyExamEntry, day studyday.Clock, ids id.Generator) ([]Session, []Segment, []QuestionRecord) {
	var (
		sessions []Session
		segments []Segment
		records  []QuestionRecord
	)
	for _, exam := range entries {
		sessionID := exam.ID
		if sessionID == "" {
			sessionID = ids.New()
		}
		end := exam.StartedAt
		for _, lap := range exam.LapsMS {
			end = end.Add(time.Duration(lap) * time.Millisecond)
		}
		sessions = append(sessions, Session{
			ID:        sessionID,
			Mode:      ModeMockExam,
			StudyDate: day.Key(exam.StartedAt),
			Title:     exam.Title,
			StartedAt: exam.StartedAt,
			EndedAt:   ClosedAt(end),
			Meta:      SessionMeta{TimeLimitSec: exam.TimeLimitSec, TargetQuestions: len(exam.LapsMS)},
		})
		segment := Segment{
			ID:        ids.New(),
			SessionID: sessionID,
			Subject:   LegacyCategory(exam.Category),
			Kind:      KindSolve,
			StartedAt: exam.StartedAt,
			EndedAt:   ClosedAt(end),
		}
		segments = append(segments, segment)

		at := exam.StartedAt
		for i, lap := range exam.LapsMS {
			lapEnd := at.Add(time.Duration(lap) * time.Millisecond)
			records = append(records, QuestionRecord{
				ID:         ids.New(),
				SessionID:  sessionID,
				SegmentID:  segment.ID,
				Subject:    segment.Subject,
				QuestionNo: i + 1,
				DurationMS: lap,
				StartedAt:  at,
				EndedAt:    lapEnd,
				Source:     SourceFinish,
			})
			at = lapEnd
		}
	}
	return sessions, segments, records
}

// Migrate lifts a pre-current document plus the two legacy sources into
// the current schema. Running it on its own output changes nothing:
// already-known ids win during the merge, and a current-version
// document with no legacy input passes through untouched.
func Migrate(doc Document, flat []LegacyFlatRecord, exams []LegacyExamEntry, day studyday.Clock, th Thresholds, ids id.Generator) Document {
	if doc.SchemaVersion >= SchemaVersion && len(flat) == 0 && len(exams) == 0 {
		return doc
	}

	flatSessions, flatSegments, flatRecords := ReplayFlatLog(flat, day, th, ids)
	examSessions, examSegments, examRecords := ConvertLegacyExams(exams, day, ids)

	out := doc
	out.SchemaVersion = SchemaVersion
	out.Sessions = mergeSessions(doc.Sessions, flatSessions, examSessions)
	out.Segments = mergeSegments(doc.Segments, flatSegments, examSegments)
	out.QuestionRecords = mergeRecords(doc.QuestionRecords, flatRecords, examRecords)
	return out
}

func mergeSessions(groups ...[]Session) []Session {
	seen := map[string]struct{}{}
	var out []Session
	for _, group := range groups {
		for _, sess := range group {
			if _, ok := seen[sess.ID]; ok {
				continue
			}
			seen[sess.ID] = struct{}{}
			out = append(out, sess)
		}
	}
	return out
}

func mergeSegments(groups ...[]Segment) []Segment {
	seen := map[string]struct{}{}
	var out []Segment
	for _, group := range groups {
		for _, seg := range group {
			if _, ok := seen[seg.ID]; ok {
				continue
			}
			seen[seg.ID] = struct{}{}
			out = append(out, seg)
		}
	}
	return out
}

func mergeRecords(groups ...[]QuestionRecord) []QuestionRecord {
	seen := map[string]struct{}{}
	var out []QuestionRecord
	for _, group := range groups {
		for _, rec := range group {
			if _, ok := seen[rec.ID]; ok {
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}
