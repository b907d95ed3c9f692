package in

import (
	"context"

	"studylog/internal/modules/tracker/dto"
)

type Usecase interface {
	Start(ctx context.Context) (dto.TimerOutput, error)
	Pause(ctx context.Context) (dto.TimerOutput, error)
	Reset(ctx context.Context) (dto.TimerOutput, error)
	SetActiveSubject(ctx context.Context, subjectID string) (dto.TimerOutput, error)

	StartSession(ctx context.Context, input dto.StartSessionInput) (dto.SessionOutput, error)
	EndSession(ctx context.Context) (dto.SessionOutput, error)
	StartSegment(ctx context.Context, input dto.StartSegmentInput) (dto.SegmentOutput, error)
	EndSegment(ctx context.Context, input dto.EndSegmentInput) (dto.SegmentOutput, error)

	AddQuestion(ctx context.Context, input dto.AddQuestionInput) (dto.QuestionOutput, error)
	AddQuestionForActiveSegment(ctx context.Context, input dto.ActiveQuestionInput) (dto.QuestionOutput, error)
	UndoLastQuestion(ctx context.Context, segmentID string) (dto.QuestionOutput, error)

	IntakeFinishedSession(ctx context.Context, input dto.IntakeInput) (dto.SessionOutput, error)

	CreateSubject(ctx context.Context, name string) (dto.SubjectOutput, error)
	RenameSubject(ctx context.Context, subjectID, name string) (dto.SubjectOutput, error)
	ArchiveSubject(ctx context.Context, subjectID string) (dto.SubjectOutput, error)
	ReorderSubject(ctx context.Context, subjectID string, position int) (dto.SubjectOutput, error)
	ListSubjects(ctx context.Context, includeArchived bool) ([]dto.SubjectOutput, error)

	Status(ctx context.Context) (dto.StatusOutput, error)
	Snapshot(ctx context.Context) (dto.SnapshotOutput, error)
	Close(ctx context.Context) error
}
