package dto

import "time"

type TotalsOutput struct {
	DurationMS    int64
	QuestionCount int
}

type DayPointOutput struct {
	Date          string
	DurationMS    int64
	QuestionCount int
	SessionCount  int
}

type SubjectRowOutput struct {
	SubjectID     string
	Name          string
	DurationMS    int64
	QuestionCount int
}

type BottleneckOutput struct {
	QuestionID string
	SubjectID  string
	DurationMS int64
	OverAvgMS  int64
}

type ExamSummaryOutput struct {
	SessionID       string
	Title           string
	StudyDate       string
	StartedAt       time.Time
	DurationMS      int64
	QuestionCount   int
	TimeLimitSec    int
	TargetQuestions int
}

type StatsOutput struct {
	GeneratedAt time.Time
	Today       TotalsOutput
	Week        TotalsOutput
	Daily       []DayPointOutput
	Subjects    []SubjectRowOutput
	Bottlenecks []BottleneckOutput
	ExamWeek    TotalsOutput
	RecentExams []ExamSummaryOutput
	LatestExam  *ExamSummaryOutput
}

type StatsInput struct {
	WindowDays int
}

type ProjectOutput struct {
	Days     int
	Sessions int
}

type ExportInput struct {
	// Date is a study-day key; empty means the current study day.
	Date string
}

type ExportOutput struct {
	Date string
	Path string
}
