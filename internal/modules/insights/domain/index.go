package domain

import (
	"sort"
	"time"

	tracker "studylog/internal/modules/tracker/domain"
)

// SessionStats are the per-session derived numbers. Duration is the sum
// of the session's segment durations, not ended-started of the session
// itself, so paused stretches inside a session never count.
type SessionStats struct {
	DurationMS    int64
	QuestionCount int
	SegmentCount  int
	SubjectIDs    []string
}

type ModeStats struct {
	DurationMS    int64
	QuestionCount int
	SessionCount  int
}

type DayStats struct {
	DurationMS    int64
	QuestionCount int
	SessionCount  int
	ByMode        map[tracker.SessionMode]ModeStats
}

// Index is a recomputable lookup structure over the entity log. It is
// never persisted; callers rebuild it from a snapshot whenever they
// need fresh numbers.
type Index struct {
	SessionsByID       map[string]tracker.Session
	SessionsByDate     map[string][]tracker.Session
	SegmentsBySession  map[string][]tracker.Segment
	QuestionsBySegment map[string][]tracker.QuestionRecord
	SessionStatsByID   map[string]SessionStats
	DayStatsByDate     map[string]DayStats
}

// BuildIndex derives all lookups and statistics in one forward pass per
// input collection. Open segments are measured against now, clamped to
// a non-negative duration.
func BuildIndex(sessions []tracker.Session, segments []tracker.Segment, records []tracker.QuestionRecord, now time.Time) Index {
	idx := Index{
		SessionsByID:       make(map[string]tracker.Session, len(sessions)),
		SessionsByDate:     make(map[string][]tracker.Session),
		SegmentsBySession:  make(map[string][]tracker.Segment),
		QuestionsBySegment: make(map[string][]tracker.QuestionRecord),
		SessionStatsByID:   make(map[string]SessionStats, len(sessions)),
		DayStatsByDate:     make(map[string]DayStats),
	}

	for _, sess := range sessions {
		idx.SessionsByID[sess.ID] = sess
		idx.SessionsByDate[sess.StudyDate] = append(idx.SessionsByDate[sess.StudyDate], sess)
		idx.SessionStatsByID[sess.ID] = SessionStats{}
	}

	subjectSeen := make(map[string]map[string]bool)
	for _, seg := range segments {
		idx.SegmentsBySession[seg.SessionID] = append(idx.SegmentsBySession[seg.SessionID], seg)
		stats, ok := idx.SessionStatsByID[seg.SessionID]
		if !ok {
			continue // orphan segment, ignored rather than invented
		}
		stats.DurationMS += seg.Duration(now).Milliseconds()
		stats.SegmentCount++
		subject := seg.Subject.String()
		if subject != "" {
			seen := subjectSeen[seg.SessionID]
			if seen == nil {
				seen = make(map[string]bool)
				subjectSeen[seg.SessionID] = seen
			}
			if !seen[subject] {
				seen[subject] = true
				stats.SubjectIDs = append(stats.SubjectIDs, subject)
			}
		}
		idx.SessionStatsByID[seg.SessionID] = stats
	}

	for _, rec := range records {
		idx.QuestionsBySegment[rec.SegmentID] = append(idx.QuestionsBySegment[rec.SegmentID], rec)
		if stats, ok := idx.SessionStatsByID[rec.SessionID]; ok {
			stats.QuestionCount++
			idx.SessionStatsByID[rec.SessionID] = stats
		}
	}

	for _, sess := range sessions {
		stats := idx.SessionStatsByID[sess.ID]
		day := idx.DayStatsByDate[sess.StudyDate]
		if day.ByMode == nil {
			day.ByMode = make(map[tracker.SessionMode]ModeStats, 2)
		}
		day.DurationMS += stats.DurationMS
		day.QuestionCount += stats.QuestionCount
		day.SessionCount++
		mode := day.ByMode[sess.Mode]
		mode.DurationMS += stats.DurationMS
		mode.QuestionCount += stats.QuestionCount
		mode.SessionCount++
		day.ByMode[sess.Mode] = mode
		idx.DayStatsByDate[sess.StudyDate] = day
	}

	for date := range idx.SessionsByDate {
		list := idx.SessionsByDate[date]
		sort.SliceStable(list, func(a, b int) bool { return list[a].StartedAt.After(list[b].StartedAt) })
	}
	for id := range idx.SegmentsBySession {
		list := idx.SegmentsBySession[id]
		sort.SliceStable(list, func(a, b int) bool { return list[a].StartedAt.Before(list[b].StartedAt) })
	}
	for id := range idx.QuestionsBySegment {
		list := idx.QuestionsBySegment[id]
		sort.SliceStable(list, func(a, b int) bool { return list[a].StartedAt.Before(list[b].StartedAt) })
	}
	return idx
}
