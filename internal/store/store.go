package store

import (
	"context"

	"github.com/adpilot/campaign-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines run persistence for the campaign pipeline.
type Store interface {
	CreateRun(ctx context.Context, spec model.CampaignSpec) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.PipelineResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	SaveStageResult(ctx context.Context, runID string, result model.StageResult) error

	Migrate(ctx context.Context) error
	Close() error
}
