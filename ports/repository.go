package ports

import (
	"context"

	"relpi/domain/core"
	"relpi/domain/report"
)

// RunRepositoryPort persists pipeline runs and their decision records
type RunRepositoryPort interface {
	SaveRun(ctx context.Context, summary *report.RunSummary) error
	GetRun(ctx context.Context, runID core.RunID) (*report.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]*report.RunSummary, error)
}
