package in

import (
	"context"

	"studylog/internal/modules/tracker/dto"
	trackerin "studylog/internal/modules/tracker/port/in"
)

type CLIHandler struct {
	usecase trackerin.Usecase
}

func NewCLIHandler(usecase trackerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context) (dto.TimerOutput, error) {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) Pause(ctx context.Context) (dto.TimerOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) (dto.TimerOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) Switch(ctx context.Context, subjectID string) (dto.TimerOutput, error) {
	return h.usecase.SetActiveSubject(ctx, subjectID)
}

func (h CLIHandler) StartSession(ctx context.Context, mode, title string, timeLimitSec, targetQuestions int) (dto.SessionOutput, error) {
	return h.usecase.StartSession(ctx, dto.StartSessionInput{Mode: mode, Title: title, TimeLimitSec: timeLimitSec, TargetQuestions: targetQuestions})
}

func (h CLIHandler) EndSession(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.EndSession(ctx)
}

func (h CLIHandler) AddQuestion(ctx context.Context, durationMS int64) (dto.QuestionOutput, error) {
	return h.usecase.AddQuestionForActiveSegment(ctx, dto.ActiveQuestionInput{DurationMS: durationMS})
}

func (h CLIHandler) UndoQuestion(ctx context.Context, segmentID string) (dto.QuestionOutput, error) {
	if segmentID == "" {
		status, err := h.usecase.Status(ctx)
		if err != nil {
			return dto.QuestionOutput{}, err
		}
		segmentID = status.SegmentID
	}
	return h.usecase.UndoLastQuestion(ctx, segmentID)
}

func (h CLIHandler) CreateSubject(ctx context.Context, name string) (dto.SubjectOutput, error) {
	return h.usecase.CreateSubject(ctx, name)
}

func (h CLIHandler) RenameSubject(ctx context.Context, subjectID, name string) (dto.SubjectOutput, error) {
	return h.usecase.RenameSubject(ctx, subjectID, name)
}

func (h CLIHandler) ArchiveSubject(ctx context.Context, subjectID string) (dto.SubjectOutput, error) {
	return h.usecase.ArchiveSubject(ctx, subjectID)
}

func (h CLIHandler) ReorderSubject(ctx context.Context, subjectID string, position int) (dto.SubjectOutput, error) {
	return h.usecase.ReorderSubject(ctx, subjectID, position)
}

func (h CLIHandler) ListSubjects(ctx context.Context, includeArchived bool) ([]dto.SubjectOutput, error) {
	return h.usecase.ListSubjects(ctx, includeArchived)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}
