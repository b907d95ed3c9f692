package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	insightsout "studylog/internal/modules/insights/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteStatsProjector struct {
	db *sql.DB
}

func NewSQLiteStatsProjector(dbPath string) (insightsout.StatsProjector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	projector := &SQLiteStatsProjector{db: db}
	if err := projector.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return projector, nil
}

func (s *SQLiteStatsProjector) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS day_stats (
  date TEXT PRIMARY KEY,
  duration_ms INTEGER NOT NULL,
  question_count INTEGER NOT NULL,
  session_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS session_stats (
  id TEXT PRIMARY KEY,
  mode TEXT NOT NULL,
  study_date TEXT NOT NULL,
  title TEXT,
  started_at TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  question_count INTEGER NOT NULL,
  segment_count INTEGER NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create stats tables: %w", err)
	}
	return nil
}

func (s *SQLiteStatsProjector) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM day_stats`); err != nil {
		return fmt.Errorf("reset day stats: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_stats`); err != nil {
		return fmt.Errorf("reset session stats: %w", err)
	}
	return nil
}

func (s *SQLiteStatsProjector) UpsertDay(ctx context.Context, row insightsout.DayRow) error {
	const stmt = `
INSERT INTO day_stats (date, duration_ms, question_count, session_count)
VALUES (?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  duration_ms=excluded.duration_ms,
  question_count=excluded.question_count,
  session_count=excluded.session_count;
`
	if _, err := s.db.ExecContext(ctx, stmt, row.Date, row.DurationMS, row.QuestionCount, row.SessionCount); err != nil {
		return fmt.Errorf("upsert day stats: %w", err)
	}
	return nil
}

func (s *SQLiteStatsProjector) UpsertSession(ctx context.Context, row insightsout.SessionRow) error {
	const stmt = `
INSERT INTO session_stats (id, mode, study_date, title, started_at, duration_ms, question_count, segment_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  mode=excluded.mode,
  study_date=excluded.study_date,
  title=excluded.title,
  started_at=excluded.started_at,
  duration_ms=excluded.duration_ms,
  question_count=excluded.question_count,
  segment_count=excluded.segment_count;
`
	_, err := s.db.ExecContext(ctx, stmt,
		row.ID,
		row.Mode,
		row.StudyDate,
		row.Title,
		row.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		row.DurationMS,
		row.QuestionCount,
		row.SegmentCount,
	)
	if err != nil {
		return fmt.Errorf("upsert session stats: %w", err)
	}
	return nil
}

func (s *SQLiteStatsProjector) Close() error {
	return s.db.Close()
}
