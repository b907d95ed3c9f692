package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrNoActiveSession  = errors.New("no active session")
	ErrNoActiveSegment  = errors.New("no active segment")
	ErrSessionClosed    = errors.New("session already closed")
	ErrSegmentClosed    = errors.New("segment already closed")
	ErrNoQuestions      = errors.New("segment has no question records")
	ErrSubjectRequired  = errors.New("no subject selected")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreClosed      = errors.New("document store is closed")
	ErrNoLegacyDocument = errors.New("no legacy document")
)
