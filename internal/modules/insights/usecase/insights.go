package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"studylog/internal/modules/insights/domain"
	"studylog/internal/modules/insights/dto"
	insightsin "studylog/internal/modules/insights/port/in"
	insightsout "studylog/internal/modules/insights/port/out"
	"studylog/internal/modules/insights/service"
)

type Interactor struct {
	svc       *service.InsightsService
	logs      insightsout.LogReader
	projector insightsout.StatsProjector
	notes     insightsout.NoteStore
}

func NewInteractor(svc *service.InsightsService, logs insightsout.LogReader, projector insightsout.StatsProjector, notes insightsout.NoteStore) insightsin.Usecase {
	return &Interactor{svc: svc, logs: logs, projector: projector, notes: notes}
}

func (i *Interactor) Stats(ctx context.Context, input dto.StatsInput) (dto.StatsOutput, error) {
	snap, err := i.logs.Snapshot(ctx)
	if err != nil {
		return dto.StatsOutput{}, fmt.Errorf("read log snapshot: %w", err)
	}
	report := i.svc.Analyze(snap, input.WindowDays)

	out := dto.StatsOutput{
		GeneratedAt: snap.Now,
		Today:       dto.TotalsOutput(report.Today),
		Week:        dto.TotalsOutput(report.Week),
		ExamWeek:    dto.TotalsOutput(report.Exams.Week),
	}
	for _, point := range report.Daily {
		out.Daily = append(out.Daily, dto.DayPointOutput(point))
	}
	for _, row := range report.Subjects {
		out.Subjects = append(out.Subjects, dto.SubjectRowOutput(row))
	}
	for _, slow := range report.Bottlenecks {
		out.Bottlenecks = append(out.Bottlenecks, dto.BottleneckOutput{
			QuestionID: slow.QuestionID,
			SubjectID:  slow.SubjectID,
			DurationMS: slow.DurationMS,
			OverAvgMS:  slow.OverAvgMS,
		})
	}
	for _, exam := range report.Exams.Recent {
		out.RecentExams = append(out.RecentExams, examOutput(exam))
	}
	if report.Exams.Latest != nil {
		latest := examOutput(*report.Exams.Latest)
		out.LatestExam = &latest
	}
	return out, nil
}

// Project rebuilds the sqlite statistics wholesale. The projection is a
// convenience for external queries and can always be regenerated.
func (i *Interactor) Project(ctx context.Context) (dto.ProjectOutput, error) {
	snap, err := i.logs.Snapshot(ctx)
	if err != nil {
		return dto.ProjectOutput{}, fmt.Errorf("read log snapshot: %w", err)
	}
	idx := i.svc.BuildIndex(snap)

	if err := i.projector.Reset(ctx); err != nil {
		return dto.ProjectOutput{}, err
	}
	dates := make([]string, 0, len(idx.DayStatsByDate))
	for date := range idx.DayStatsByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		day := idx.DayStatsByDate[date]
		row := insightsout.DayRow{Date: date, DurationMS: day.DurationMS, QuestionCount: day.QuestionCount, SessionCount: day.SessionCount}
		if err := i.projector.UpsertDay(ctx, row); err != nil {
			return dto.ProjectOutput{}, err
		}
	}

	ids := make([]string, 0, len(idx.SessionsByID))
	for id := range idx.SessionsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		sess := idx.SessionsByID[id]
		stats := idx.SessionStatsByID[id]
		row := insightsout.SessionRow{
			ID:            sess.ID,
			Mode:          string(sess.Mode),
			StudyDate:     sess.StudyDate,
			Title:         sess.Title,
			StartedAt:     sess.StartedAt,
			DurationMS:    stats.DurationMS,
			QuestionCount: stats.QuestionCount,
			SegmentCount:  stats.SegmentCount,
		}
		if err := i.projector.UpsertSession(ctx, row); err != nil {
			return dto.ProjectOutput{}, err
		}
	}
	return dto.ProjectOutput{Days: len(dates), Sessions: len(ids)}, nil
}

// Export writes the markdown note for one study day.
func (i *Interactor) Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	snap, err := i.logs.Snapshot(ctx)
	if err != nil {
		return dto.ExportOutput{}, fmt.Errorf("read log snapshot: %w", err)
	}
	date := input.Date
	if date == "" {
		date = i.svc.Day().Key(snap.Now)
	}
	idx := i.svc.BuildIndex(snap)

	day := idx.DayStatsByDate[date]
	note := insightsout.DailyNote{
		Date:          date,
		DurationMS:    day.DurationMS,
		QuestionCount: day.QuestionCount,
		SessionCount:  day.SessionCount,
	}
	for _, row := range domain.SubjectBreakdownForDate(snap.Subjects, idx, date, snap.Now) {
		note.SubjectLines = append(note.SubjectLines, fmt.Sprintf("- %s: %s (%d questions)", row.Name, formatDuration(row.DurationMS), row.QuestionCount))
	}
	path, err := i.notes.WriteDailyNote(ctx, note)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Date: date, Path: path}, nil
}

func examOutput(exam domain.ExamSummary) dto.ExamSummaryOutput {
	return dto.ExamSummaryOutput(exam)
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
