package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"studylog/internal/modules/insights/domain"
	"studylog/internal/modules/insights/dto"
	insightsout "studylog/internal/modules/insights/port/out"
	"studylog/internal/modules/insights/service"
	"studylog/internal/modules/insights/usecase"
	tracker "studylog/internal/modules/tracker/domain"
	"studylog/internal/platform/studyday"
)

type fakeLogReader struct {
	snap insightsout.LogSnapshot
}

func (f *fakeLogReader) Snapshot(context.Context) (insightsout.LogSnapshot, error) {
	return f.snap, nil
}

type fakeProjector struct {
	resets   int
	days     []insightsout.DayRow
	sessions []insightsout.SessionRow
}

func (f *fakeProjector) Reset(context.Context) error {
	f.resets++
	f.days = nil
	f.sessions = nil
	return nil
}

func (f *fakeProjector) UpsertDay(_ context.Context, row insightsout.DayRow) error {
	f.days = append(f.days, row)
	return nil
}

func (f *fakeProjector) UpsertSession(_ context.Context, row insightsout.SessionRow) error {
	f.sessions = append(f.sessions, row)
	return nil
}

func (f *fakeProjector) Close() error { return nil }

type fakeNoteStore struct {
	last insightsout.DailyNote
}

func (f *fakeNoteStore) WriteDailyNote(_ context.Context, note insightsout.DailyNote) (string, error) {
	f.last = note
	return "/notes/" + note.Date + ".md", nil
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func fixtureSnapshot() insightsout.LogSnapshot {
	return insightsout.LogSnapshot{
		Now: at(12, 0),
		Subjects: []tracker.Subject{
			{ID: "algebra", Name: "Algebra", Order: 1},
		},
		Sessions: []tracker.Session{
			{ID: "sess1", Mode: tracker.ModeProblemSolving, StudyDate: "2026-03-14", StartedAt: at(9, 0), EndedAt: tracker.ClosedAt(at(10, 0))},
		},
		Segments: []tracker.Segment{
			{ID: "seg1", SessionID: "sess1", Subject: tracker.RealSubject("algebra"), Kind: tracker.KindSolve, StartedAt: at(9, 0), EndedAt: tracker.ClosedAt(at(10, 0))},
		},
		Records: []tracker.QuestionRecord{
			{ID: "q1", SessionID: "sess1", SegmentID: "seg1", Subject: tracker.RealSubject("algebra"), QuestionNo: 1, DurationMS: 30_000, StartedAt: at(9, 0), EndedAt: at(9, 1), Source: tracker.SourceTap},
			{ID: "q2", SessionID: "sess1", SegmentID: "seg1", Subject: tracker.RealSubject("algebra"), QuestionNo: 2, DurationMS: 90_000, StartedAt: at(9, 5), EndedAt: at(9, 7), Source: tracker.SourceTap},
		},
	}
}

func TestStatsMapsAnalyticsSnapshot(t *testing.T) {
	t.Parallel()
	svc := service.NewInsightsService(studyday.Default(), domain.Params{WindowDays: 14, RecentExams: 6})
	uc := usecase.NewInteractor(svc, &fakeLogReader{snap: fixtureSnapshot()}, &fakeProjector{}, &fakeNoteStore{})

	stats, err := uc.Stats(context.Background(), dto.StatsInput{WindowDays: 7})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Today.DurationMS != 60*60*1000 || stats.Today.QuestionCount != 2 {
		t.Fatalf("unexpected today totals: %+v", stats.Today)
	}
	if len(stats.Daily) != 7 {
		t.Fatalf("window override must apply, got %d points", len(stats.Daily))
	}
	if len(stats.Bottlenecks) != 1 || stats.Bottlenecks[0].OverAvgMS != 30_000 {
		t.Fatalf("unexpected bottlenecks: %+v", stats.Bottlenecks)
	}
	if stats.LatestExam != nil {
		t.Fatal("no mock exams in the fixture")
	}
}

func TestProjectRebuildsWholesale(t *testing.T) {
	t.Parallel()
	svc := service.NewInsightsService(studyday.Default(), domain.Params{})
	projector := &fakeProjector{}
	uc := usecase.NewInteractor(svc, &fakeLogReader{snap: fixtureSnapshot()}, projector, &fakeNoteStore{})

	out, err := uc.Project(context.Background())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if projector.resets != 1 {
		t.Fatalf("projection must reset before refilling, got %d resets", projector.resets)
	}
	if out.Days != 1 || out.Sessions != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if projector.days[0].Date != "2026-03-14" || projector.days[0].DurationMS != 60*60*1000 {
		t.Fatalf("unexpected day row: %+v", projector.days[0])
	}
	if projector.sessions[0].ID != "sess1" || projector.sessions[0].QuestionCount != 2 {
		t.Fatalf("unexpected session row: %+v", projector.sessions[0])
	}
}

func TestExportDefaultsToCurrentStudyDay(t *testing.T) {
	t.Parallel()
	svc := service.NewInsightsService(studyday.Default(), domain.Params{})
	notes := &fakeNoteStore{}
	uc := usecase.NewInteractor(svc, &fakeLogReader{snap: fixtureSnapshot()}, &fakeProjector{}, notes)

	out, err := uc.Export(context.Background(), dto.ExportInput{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out.Date != "2026-03-14" {
		t.Fatalf("empty date must resolve via the study-day clock, got %q", out.Date)
	}
	if notes.last.SessionCount != 1 || notes.last.QuestionCount != 2 {
		t.Fatalf("unexpected note payload: %+v", notes.last)
	}
	if len(notes.last.SubjectLines) != 1 || !strings.Contains(notes.last.SubjectLines[0], "Algebra") {
		t.Fatalf("subject line missing: %v", notes.last.SubjectLines)
	}
}
