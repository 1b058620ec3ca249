package ports

import (
	"context"

	"relpi/domain/metric"
)

// DatasetPort resolves a tabular data source into validity-masked paired
// metrics. Ingestion format details (Excel, CSV, synthetic) live behind this
// boundary; the numeric core only sees metric.Metric values.
type DatasetPort interface {
	LoadMetrics(ctx context.Context) ([]*metric.Metric, error)
}
