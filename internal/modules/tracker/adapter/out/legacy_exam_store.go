package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"studylog/internal/modules/tracker/domain"
	trackerout "studylog/internal/modules/tracker/port/out"
)

// FileLegacyExamStore reads the ad-hoc exam log that predates the
// session hierarchy. The file was written by hand-rolled code and is
// treated as best-effort input: absent or unreadable means nothing to
// migrate, never an error.
type FileLegacyExamStore struct {
	path string
}

func NewFileLegacyExamStore(path string) trackerout.LegacyExamStore {
	return &FileLegacyExamStore{path: path}
}

func (s *FileLegacyExamStore) Load(_ context.Context, now time.Time) ([]domain.LegacyExamEntry, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}
	raw := []any{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		// Some writers wrapped the list in an object.
		wrapped := struct {
			Exams []any `json:"exams"`
		}{}
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return nil, nil
		}
		raw = wrapped.Exams
	}
	entries, _ := domain.ParseLegacyExams(raw, now)
	return entries, nil
}

func (s *FileLegacyExamStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("remove legacy exam log: %w", err)
	}
	return nil
}
