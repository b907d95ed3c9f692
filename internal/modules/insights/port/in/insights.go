package in

import (
	"context"

	"studylog/internal/modules/insights/dto"
)

type Usecase interface {
	Stats(ctx context.Context, input dto.StatsInput) (dto.StatsOutput, error)
	Project(ctx context.Context) (dto.ProjectOutput, error)
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
}
