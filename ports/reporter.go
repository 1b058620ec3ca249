package ports

import (
	"context"

	"relpi/domain/report"
)

// ReportWriterPort renders a run summary for external consumers (xlsx files,
// report directories). Rendering never mutates the summary.
type ReportWriterPort interface {
	WriteReport(ctx context.Context, summary *report.RunSummary) (string, error)
}
