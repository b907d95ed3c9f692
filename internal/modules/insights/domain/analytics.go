package domain

import (
	"sort"
	"time"

	tracker "studylog/internal/modules/tracker/domain"
	"studylog/internal/platform/studyday"
)

const weekDays = 7

type Totals struct {
	DurationMS    int64
	QuestionCount int
}

// DayPoint is one entry of the rolling daily series, oldest first.
type DayPoint struct {
	Date          string
	DurationMS    int64
	QuestionCount int
	SessionCount  int
}

type SubjectTotals struct {
	SubjectID     string
	Name          string
	DurationMS    int64
	QuestionCount int
}

// Bottleneck is a question that took longer than the week's average.
type Bottleneck struct {
	QuestionID string
	SessionID  string
	SegmentID  string
	SubjectID  string
	DurationMS int64
	OverAvgMS  int64
}

type ExamSummary struct {
	SessionID       string
	Title           string
	StudyDate       string
	StartedAt       time.Time
	DurationMS      int64
	QuestionCount   int
	TimeLimitSec    int
	TargetQuestions int
}

// ExamTrack keeps mock-exam numbers out of the problem-solving totals.
type ExamTrack struct {
	Week   Totals
	Recent []ExamSummary
	Latest *ExamSummary
}

type Snapshot struct {
	Today       Totals
	Week        Totals
	Daily       []DayPoint
	Subjects    []SubjectTotals
	Bottlenecks []Bottleneck
	Exams       ExamTrack
}

// Params scope an analytics run. Zero values fall back to the
// historical defaults.
type Params struct {
	WindowDays  int
	RecentExams int
}

func (p Params) withDefaults() Params {
	if p.WindowDays <= 0 {
		p.WindowDays = 14
	}
	if p.RecentExams <= 0 {
		p.RecentExams = 6
	}
	return p
}

// Analyze computes the full range-scoped snapshot. Problem-solving and
// mock-exam sessions live in disjoint tracks; no total ever mixes the
// two modes. Windows are sets of study-day keys, not elapsed wall-clock
// intervals.
func Analyze(subjects []tracker.Subject, idx Index, now time.Time, day studyday.Clock, params Params) Snapshot {
	params = params.withDefaults()
	todayKey := day.Key(now)
	weekKeys := keySet(day.LastKeys(now, weekDays))

	names := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}

	snap := Snapshot{}

	// Problem-solving track: totals, subject breakdown and bottleneck
	// candidates come from the same week walk.
	bySubject := make(map[string]*SubjectTotals)
	var weekQuestions []tracker.QuestionRecord
	for id, sess := range idx.SessionsByID {
		if sess.Mode != tracker.ModeProblemSolving {
			continue
		}
		stats := idx.SessionStatsByID[id]
		if sess.StudyDate == todayKey {
			snap.Today.DurationMS += stats.DurationMS
			snap.Today.QuestionCount += stats.QuestionCount
		}
		if !weekKeys[sess.StudyDate] {
			continue
		}
		snap.Week.DurationMS += stats.DurationMS
		snap.Week.QuestionCount += stats.QuestionCount
		for _, seg := range idx.SegmentsBySession[id] {
			key := seg.Subject.String()
			row := bySubject[key]
			if row == nil {
				row = &SubjectTotals{SubjectID: key, Name: subjectName(seg.Subject, names)}
				bySubject[key] = row
			}
			row.DurationMS += seg.Duration(now).Milliseconds()
			for _, rec := range idx.QuestionsBySegment[seg.ID] {
				row.QuestionCount++
				weekQuestions = append(weekQuestions, rec)
			}
		}
	}

	snap.Daily = dailySeries(idx, day.LastKeys(now, params.WindowDays))
	snap.Subjects = sortedSubjects(bySubject)
	snap.Bottlenecks = bottlenecks(weekQuestions)
	snap.Exams = examTrack(idx, weekKeys, params.RecentExams)
	return snap
}

// SubjectBreakdownForDate is the per-subject slice of a single study
// day, all modes included; the daily note shows everything that
// happened that day.
func SubjectBreakdownForDate(subjects []tracker.Subject, idx Index, date string, now time.Time) []SubjectTotals {
	names := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	bySubject := make(map[string]*SubjectTotals)
	for _, sess := range idx.SessionsByDate[date] {
		for _, seg := range idx.SegmentsBySession[sess.ID] {
			key := seg.Subject.String()
			row := bySubject[key]
			if row == nil {
				row = &SubjectTotals{SubjectID: key, Name: subjectName(seg.Subject, names)}
				bySubject[key] = row
			}
			row.DurationMS += seg.Duration(now).Milliseconds()
			row.QuestionCount += len(idx.QuestionsBySegment[seg.ID])
		}
	}
	return sortedSubjects(bySubject)
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return set
}

func subjectName(ref tracker.SubjectRef, names map[string]string) string {
	switch ref.Kind() {
	case tracker.RefReview:
		return "Review"
	case tracker.RefRoomExam:
		return "Room exam"
	case tracker.RefLegacyCategory:
		return ref.CategoryName()
	default:
		if name, ok := names[ref.SubjectID()]; ok {
			return name
		}
		return ref.SubjectID()
	}
}

func dailySeries(idx Index, keys []string) []DayPoint {
	series := make([]DayPoint, 0, len(keys))
	for _, key := range keys {
		point := DayPoint{Date: key}
		if day, ok := idx.DayStatsByDate[key]; ok {
			mode := day.ByMode[tracker.ModeProblemSolving]
			point.DurationMS = mode.DurationMS
			point.QuestionCount = mode.QuestionCount
			point.SessionCount = mode.SessionCount
		}
		series = append(series, point)
	}
	return series
}

func sortedSubjects(bySubject map[string]*SubjectTotals) []SubjectTotals {
	rows := make([]SubjectTotals, 0, len(bySubject))
	for _, row := range bySubject {
		if row.DurationMS == 0 && row.QuestionCount == 0 {
			continue
		}
		rows = append(rows, *row)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].DurationMS != rows[b].DurationMS {
			return rows[a].DurationMS > rows[b].DurationMS
		}
		return rows[a].SubjectID < rows[b].SubjectID
	})
	return rows
}

// bottlenecks flags every question strictly slower than the week's
// average. There is no top-K cutoff; the list is everything slower than
// typical.
func bottlenecks(questions []tracker.QuestionRecord) []Bottleneck {
	if len(questions) == 0 {
		return nil
	}
	var sum int64
	for _, rec := range questions {
		sum += rec.DurationMS
	}
	avg := sum / int64(len(questions))

	out := []Bottleneck{}
	for _, rec := range questions {
		if rec.DurationMS <= avg {
			continue
		}
		out = append(out, Bottleneck{
			QuestionID: rec.ID,
			SessionID:  rec.SessionID,
			SegmentID:  rec.SegmentID,
			SubjectID:  rec.Subject.String(),
			DurationMS: rec.DurationMS,
			OverAvgMS:  rec.DurationMS - avg,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DurationMS > out[b].DurationMS })
	return out
}

func examTrack(idx Index, weekKeys map[string]bool, recent int) ExamTrack {
	track := ExamTrack{}
	summaries := []ExamSummary{}
	for id, sess := range idx.SessionsByID {
		if sess.Mode != tracker.ModeMockExam {
			continue
		}
		stats := idx.SessionStatsByID[id]
		if weekKeys[sess.StudyDate] {
			track.Week.DurationMS += stats.DurationMS
			track.Week.QuestionCount += stats.QuestionCount
		}
		summaries = append(summaries, ExamSummary{
			SessionID:       sess.ID,
			Title:           sess.Title,
			StudyDate:       sess.StudyDate,
			StartedAt:       sess.StartedAt,
			DurationMS:      stats.DurationMS,
			QuestionCount:   stats.QuestionCount,
			TimeLimitSec:    sess.Meta.TimeLimitSec,
			TargetQuestions: sess.Meta.TargetQuestions,
		})
	}
	sort.SliceStable(summaries, func(a, b int) bool { return summaries[a].StartedAt.After(summaries[b].StartedAt) })
	if len(summaries) > 0 {
		latest := summaries[0]
		track.Latest = &latest
	}
	if len(summaries) > recent {
		summaries = summaries[:recent]
	}
	track.Recent = summaries
	return track
}
