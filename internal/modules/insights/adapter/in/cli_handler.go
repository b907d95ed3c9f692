package in

import (
	"context"

	"studylog/internal/modules/insights/dto"
	insightsin "studylog/internal/modules/insights/port/in"
)

type CLIHandler struct {
	usecase insightsin.Usecase
}

func NewCLIHandler(usecase insightsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Stats(ctx context.Context, windowDays int) (dto.StatsOutput, error) {
	return h.usecase.Stats(ctx, dto.StatsInput{WindowDays: windowDays})
}

func (h CLIHandler) Project(ctx context.Context) (dto.ProjectOutput, error) {
	return h.usecase.Project(ctx)
}

func (h CLIHandler) Export(ctx context.Context, date string) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx, dto.ExportInput{Date: date})
}
