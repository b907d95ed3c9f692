package out

import (
	"context"
	"fmt"

	insightsout "studylog/internal/modules/insights/port/out"
	trackerin "studylog/internal/modules/tracker/port/in"
)

// TrackerLogAdapter feeds the read models from the tracker's snapshot
// operation instead of re-reading the file, so both modules always see
// the same in-memory log.
type TrackerLogAdapter struct {
	tracker trackerin.Usecase
}

func NewTrackerLogAdapter(tracker trackerin.Usecase) insightsout.LogReader {
	return &TrackerLogAdapter{tracker: tracker}
}

func (a *TrackerLogAdapter) Snapshot(ctx context.Context) (insightsout.LogSnapshot, error) {
	snap, err := a.tracker.Snapshot(ctx)
	if err != nil {
		return insightsout.LogSnapshot{}, fmt.Errorf("tracker snapshot: %w", err)
	}
	return insightsout.LogSnapshot{
		Now:      snap.Now,
		Subjects: snap.Subjects,
		Sessions: snap.Sessions,
		Segments: snap.Segments,
		Records:  snap.Records,
	}, nil
}
