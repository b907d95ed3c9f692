package service

import (
	"studylog/internal/modules/insights/domain"
	insightsout "studylog/internal/modules/insights/port/out"
	"studylog/internal/platform/studyday"
)

// InsightsService runs the pure read-model computations against a log
// snapshot. All derived numbers use the snapshot's own Now.
type InsightsService struct {
	day    studyday.Clock
	params domain.Params
}

func NewInsightsService(day studyday.Clock, params domain.Params) *InsightsService {
	return &InsightsService{day: day, params: params}
}

func (s *InsightsService) Day() studyday.Clock {
	return s.day
}

func (s *InsightsService) BuildIndex(snap insightsout.LogSnapshot) domain.Index {
	return domain.BuildIndex(snap.Sessions, snap.Segments, snap.Records, snap.Now)
}

func (s *InsightsService) Analyze(snap insightsout.LogSnapshot, windowDays int) domain.Snapshot {
	params := s.params
	if windowDays > 0 {
		params.WindowDays = windowDays
	}
	idx := s.BuildIndex(snap)
	return domain.Analyze(snap.Subjects, idx, snap.Now, s.day, params)
}
