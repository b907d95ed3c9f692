package domain

import (
	"time"

	"studylog/internal/platform/parse"
)

// LegacyFlatRecord is one entry of the schema-v1 log: a flat question
// record from before sessions and segments existed.
type LegacyFlatRecord struct {
	ID         string
	SubjectID  string
	Tag        string
	QuestionNo int
	DurationMS int64
	StartedAt  time.Time
	EndedAt    time.Time
}

// LegacyExamEntry is one record of the older ad-hoc exam log: a
// finished mock exam with an embedded list of lap durations.
type LegacyExamEntry struct {
	ID           string
	Title        string
	Category     string
	StartedAt    time.Time
	TimeLimitSec int
	LapsMS       []int64
}

// ParseLegacyRecords reads the raw v1 record list. Entries that are not
// objects are dropped; malformed fields are clamped to safe defaults
// (0, now, or 1) instead of aborting the batch.
func ParseLegacyRecords(raw []any, now time.Time) ([]LegacyFlatRecord, parse.Diag) {
	diag := parse.Diag{}
	records := make([]LegacyFlatRecord, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			diag.Dropped++
			continue
		}
		rec := LegacyFlatRecord{
			ID:         parse.String(fields, "id", "", &diag),
			SubjectID:  parse.String(fields, "subject_id", "", &diag),
			Tag:        parse.String(fields, "tag", "", &diag),
			QuestionNo: parse.Int(fields, "question_no", 1, &diag),
			DurationMS: parse.Int64(fields, "duration_ms", 0, &diag),
			StartedAt:  parse.Time(fields, "started_at", now, &diag),
			EndedAt:    parse.Time(fields, "ended_at", now, &diag),
		}
		if rec.DurationMS < 0 {
			rec.DurationMS = 0
		}
		if rec.QuestionNo < 1 {
			rec.QuestionNo = 1
		}
		records = append(records, rec)
	}
	return records, diag
}

// ParseLegacyExams reads the secondary ad-hoc exam log with the same
// clamp-or-drop policy.
func ParseLegacyExams(raw []any, now time.Time) ([]LegacyExamEntry, parse.Diag) {
	diag := parse.Diag{}
	entries := make([]LegacyExamEntry, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			diag.Dropped++
			continue
		}
		exam := LegacyExamEntry{
			ID:           parse.String(fields, "id", "", &diag),
			Title:        parse.String(fields, "title", "", &diag),
			Category:     parse.String(fields, "category", "", &diag),
			StartedAt:    parse.Time(fields, "started_at", now, &diag),
			TimeLimitSec: parse.Int(fields, "time_limit_sec", 0, &diag),
		}
		if laps, ok := fields["laps_ms"].([]any); ok {
			for _, lap := range laps {
				ms, ok := lap.(float64)
				if !ok || ms < 0 {
					diag.Defaulted++
					ms = 0
				}
				exam.LapsMS = append(exam.LapsMS, int64(ms))
			}
		}
		entries = append(entries, exam)
	}
	return entries, diag
}
