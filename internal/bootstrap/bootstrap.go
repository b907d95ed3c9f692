package bootstrap

import (
	"context"
	"fmt"
	"time"

	insightsinadapter "studylog/internal/modules/insights/adapter/in"
	insightsoutadapter "studylog/internal/modules/insights/adapter/out"
	insightsdomain "studylog/internal/modules/insights/domain"
	insightsservice "studylog/internal/modules/insights/service"
	insightsusecase "studylog/internal/modules/insights/usecase"
	trackerinadapter "studylog/internal/modules/tracker/adapter/in"
	trackeroutadapter "studylog/internal/modules/tracker/adapter/out"
	trackerdomain "studylog/internal/modules/tracker/domain"
	trackerin "studylog/internal/modules/tracker/port/in"
	trackerservice "studylog/internal/modules/tracker/service"
	trackerusecase "studylog/internal/modules/tracker/usecase"
	"studylog/internal/platform/clock"
	"studylog/internal/platform/config"
	"studylog/internal/platform/id"
	"studylog/internal/platform/studyday"
)

type App struct {
	TrackerCLI  trackerinadapter.CLIHandler
	InsightsCLI insightsinadapter.CLIHandler

	tracker   trackerin.Usecase
	projector interface{ Close() error }
}

// New loads the persisted log (running migration and crash recovery
// before anything reads it) and wires both modules.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}
	day := studyday.Clock{Offset: time.Duration(cfg.Settings.StudyDayOffsetHours) * time.Hour}
	thresholds := trackerdomain.Thresholds{
		SessionGap: time.Duration(cfg.Settings.SessionGapMinutes) * time.Minute,
		SegmentGap: time.Duration(cfg.Settings.SegmentGapMinutes) * time.Minute,
	}

	docStore := trackeroutadapter.NewFileDocumentStore(cfg.DocumentPath)
	examStore := trackeroutadapter.NewFileLegacyExamStore(cfg.LegacyExamPath)
	trackerSvc := trackerservice.NewTrackerService(clk, ids, day, thresholds)
	trackerUC, err := trackerusecase.NewInteractor(ctx, trackerSvc, docStore, examStore)
	if err != nil {
		return nil, fmt.Errorf("new tracker: %w", err)
	}

	projector, err := insightsoutadapter.NewSQLiteStatsProjector(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new stats projector: %w", err)
	}
	insightsSvc := insightsservice.NewInsightsService(day, insightsdomain.Params{
		WindowDays:  cfg.Settings.DailyWindowDays,
		RecentExams: cfg.Settings.RecentMockExams,
	})
	insightsUC := insightsusecase.NewInteractor(
		insightsSvc,
		insightsoutadapter.NewTrackerLogAdapter(trackerUC),
		projector,
		insightsoutadapter.NewFileNoteStore(cfg.NotesDir),
	)

	return &App{
		TrackerCLI:  trackerinadapter.NewCLIHandler(trackerUC),
		InsightsCLI: insightsinadapter.NewCLIHandler(insightsUC),
		tracker:     trackerUC,
		projector:   projector,
	}, nil
}

// Close flushes pending document writes and releases the projection db.
func (a *App) Close(ctx context.Context) error {
	trackerErr := a.tracker.Close(ctx)
	projectorErr := a.projector.Close()
	if trackerErr != nil {
		return trackerErr
	}
	return projectorErr
}
