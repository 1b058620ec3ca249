// Package excel resolves Excel/CSV tabular datasets into paired metrics and
// writes decision-table workbooks. Column convention: an `outcome` column
// (binary), an optional `group` column (season or other partition key), and
// per metric either `<name>_a` + `<name>_b` (both units' absolute values) or
// `<name>_a` + `<name>_rel` (precomputed relative values).
package excel

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"relpi/domain/core"
	"relpi/domain/metric"
	"relpi/internal"
	"relpi/internal/errors"
	"relpi/ports"
)

const (
	outcomeColumn = "outcome"
	groupColumn   = "group"
	suffixUnitA   = "_a"
	suffixUnitB   = "_b"
	suffixRel     = "_rel"
)

// DatasetReader reads Excel and CSV files into metrics
type DatasetReader struct {
	filePath string
	log      *internal.Logger
}

// NewDatasetReader creates a reader for the given file; the extension picks
// the format.
func NewDatasetReader(filePath string, log *internal.Logger) *DatasetReader {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &DatasetReader{filePath: filePath, log: log}
}

// LoadMetrics implements ports.DatasetPort
func (r *DatasetReader) LoadMetrics(ctx context.Context) ([]*metric.Metric, error) {
	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.DatasetInvalid("dataset needs a header row and at least one data row")
	}
	return resolveMetrics(rows[0], rows[1:])
}

func (r *DatasetReader) readRows() ([][]string, error) {
	if strings.ToLower(filepath.Ext(r.filePath)) == ".csv" {
		return r.readCSV()
	}
	return r.readExcel()
}

func (r *DatasetReader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open Excel file %s", r.filePath)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read first sheet")
	}
	r.log.Debug("read %d rows from %s", len(rows), r.filePath)
	return rows, nil
}

func (r *DatasetReader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", r.filePath)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CSV")
	}
	r.log.Debug("read %d rows from %s", len(rows), r.filePath)
	return rows, nil
}

// resolveMetrics discovers metric column pairs from the header and builds
// validity-masked paired samples. Non-numeric cells become NaN and are
// removed by the per-pair mask.
func resolveMetrics(header []string, dataRows [][]string) ([]*metric.Metric, error) {
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	outcomeIdx, ok := colIdx[outcomeColumn]
	if !ok {
		return nil, errors.DatasetInvalid("dataset has no outcome column")
	}
	groupIdx, hasGroups := colIdx[groupColumn]

	outcomes := make([]int, len(dataRows))
	for i, row := range dataRows {
		outcomes[i] = parseOutcome(cell(row, outcomeIdx))
	}

	var groups []core.GroupKey
	if hasGroups {
		groups = make([]core.GroupKey, len(dataRows))
		for i, row := range dataRows {
			groups[i] = core.GroupKey(strings.TrimSpace(cell(row, groupIdx)))
		}
	}

	// Base names sorted so the metric order (and everything aggregated over
	// it downstream) is stable regardless of header layout.
	var bases []string
	for name := range colIdx {
		if strings.HasSuffix(name, suffixUnitA) {
			bases = append(bases, strings.TrimSuffix(name, suffixUnitA))
		}
	}
	sort.Strings(bases)

	var metrics []*metric.Metric
	for _, base := range bases {
		unitA := parseColumn(dataRows, colIdx[base+suffixUnitA])

		if bIdx, okB := colIdx[base+suffixUnitB]; okB {
			sample := metric.NewPairedSampleFromUnits(unitA, parseColumn(dataRows, bIdx), outcomes, groups)
			metrics = append(metrics, metric.NewMetric(core.MetricKey(base), sample))
			continue
		}
		if relIdx, okRel := colIdx[base+suffixRel]; okRel {
			sample := metric.NewPairedSample(unitA, parseColumn(dataRows, relIdx), outcomes, groups)
			metrics = append(metrics, metric.NewMetric(core.MetricKey(base), sample))
		}
	}

	if len(metrics) == 0 {
		return nil, errors.DatasetInvalid("no metric column pairs found (<name>_a with <name>_b or <name>_rel)")
	}
	return metrics, nil
}

func parseColumn(rows [][]string, idx int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx)), 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

func parseOutcome(raw string) int {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "win":
		return 1
	default:
		return 0
	}
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

var _ ports.DatasetPort = (*DatasetReader)(nil)
