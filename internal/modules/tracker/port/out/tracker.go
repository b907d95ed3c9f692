package out

import (
	"context"
	"time"

	"studylog/internal/modules/tracker/domain"
)

// DocumentStore persists the entity log. Save may complete
// asynchronously but saves must apply in submission order: the
// document is the sole source of truth on the next cold start.
type DocumentStore interface {
	// Load returns the stored document and, when the stored schema
	// predates the current one, the flat legacy records that need
	// replaying. A missing file yields an empty current document.
	Load(ctx context.Context, now time.Time) (domain.Document, []domain.LegacyFlatRecord, error)
	Save(ctx context.Context, doc domain.Document) error
	Close() error
}

// LegacyExamStore reads the older ad-hoc exam log. Clear removes it so
// a later start re-migrates nothing.
type LegacyExamStore interface {
	Load(ctx context.Context, now time.Time) ([]domain.LegacyExamEntry, error)
	Clear(ctx context.Context) error
}
