package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"studylog/internal/modules/tracker/domain"
	trackerout "studylog/internal/modules/tracker/port/out"
	apperrors "studylog/internal/platform/errors"
)

// FileDocumentStore keeps the whole entity log in one JSON document.
// Saves are handed to a single writer goroutine, so callers never wait
// on disk and writes land in submission order. A failed write is
// remembered and surfaced on the next Save or on Close.
type FileDocumentStore struct {
	path  string
	queue chan domain.Document

	mu       sync.Mutex
	writeErr error
	closed   bool
	done     chan struct{}
}

// schemaProbe reads just enough to pick a decoder.
type schemaProbe struct {
	SchemaVersion int `json:"schema_version"`
}

// flatDocument is the pre-hierarchy layout: subjects and a stopwatch
// plus one flat record list. Records are kept raw here because old
// writers were sloppy about field types; the domain parser clamps them.
type flatDocument struct {
	SchemaVersion      int              `json:"schema_version"`
	Subjects           []domain.Subject `json:"subjects"`
	Stopwatch          domain.Stopwatch `json:"stopwatch"`
	StopwatchStudyDate string           `json:"stopwatch_study_date"`
	ActiveSubjectID    string           `json:"active_subject_id"`
	Records            []any            `json:"records"`
}

func NewFileDocumentStore(path string) trackerout.DocumentStore {
	s := &FileDocumentStore{
		path:  path,
		queue: make(chan domain.Document, 16),
		done:  make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *FileDocumentStore) Load(_ context.Context, now time.Time) (domain.Document, []domain.LegacyFlatRecord, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewDocument(), nil, nil
		}
		return domain.Document{}, nil, fmt.Errorf("read document: %w", err)
	}

	probe := schemaProbe{}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return domain.Document{}, nil, fmt.Errorf("probe document schema: %w", err)
	}
	if probe.SchemaVersion >= domain.SchemaVersion {
		doc := domain.Document{}
		if err := json.Unmarshal(payload, &doc); err != nil {
			return domain.Document{}, nil, fmt.Errorf("decode document: %w", err)
		}
		return doc, nil, nil
	}

	flat := flatDocument{}
	if err := json.Unmarshal(payload, &flat); err != nil {
		return domain.Document{}, nil, fmt.Errorf("decode flat document: %w", err)
	}
	doc := domain.NewDocument()
	doc.SchemaVersion = flat.SchemaVersion
	doc.Subjects = flat.Subjects
	doc.Stopwatch = flat.Stopwatch
	doc.StopwatchStudyDate = flat.StopwatchStudyDate
	doc.ActiveSubjectID = flat.ActiveSubjectID
	records, _ := domain.ParseLegacyRecords(flat.Records, now)
	return doc, records, nil
}

func (s *FileDocumentStore) Save(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.ErrStoreClosed
	}
	err := s.writeErr
	s.writeErr = nil
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("earlier save failed: %w", err)
	}
	s.queue <- doc.Clone()
	return nil
}

// Close stops accepting saves, waits for queued writes to drain and
// reports the last write failure, if any.
func (s *FileDocumentStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return fmt.Errorf("flush document store: %w", s.writeErr)
	}
	return nil
}

func (s *FileDocumentStore) writeLoop() {
	defer close(s.done)
	for doc := range s.queue {
		if err := s.write(doc); err != nil {
			s.mu.Lock()
			s.writeErr = err
			s.mu.Unlock()
		}
	}
}

func (s *FileDocumentStore) write(doc domain.Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
