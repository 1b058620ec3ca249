package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"relpi/domain/report"
	"relpi/internal"
	"relpi/internal/errors"
	"relpi/ports"
)

// ReportWriter renders a run summary as an xlsx decision table
type ReportWriter struct {
	dir string
	log *internal.Logger
}

// NewReportWriter creates a writer targeting the given directory
func NewReportWriter(dir string, log *internal.Logger) *ReportWriter {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &ReportWriter{dir: dir, log: log}
}

// WriteReport implements ports.ReportWriterPort. One row per metric; the
// sensitivity verdicts are flattened into their own columns.
func (w *ReportWriter) WriteReport(ctx context.Context, summary *report.RunSummary) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create report directory")
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Decisions"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return "", errors.Wrap(err, "failed to create sheet")
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"metric", "final_tag", "rejection_reason", "kappa", "rho",
		"sef_theoretical", "sef_flags", "sef_empirical", "eta_star",
		"sample_size", "temporal", "parameter", "robustness", "significance",
		"recommendation",
	}
	for col, h := range headers {
		cellName, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cellName, h)
	}

	for rowNum, rec := range summary.Records {
		values := []interface{}{
			rec.Key.String(), string(rec.FinalTag), string(rec.RejectionReason),
			rec.Kappa, rec.Rho,
			rec.SEFTheoretical.Value, sefFlags(rec), rec.SEFEmpirical, rec.EtaStar,
			verdictCell(rec, "sample_size"), verdictCell(rec, "temporal"),
			verdictCell(rec, "parameter"), verdictCell(rec, "robustness"),
			verdictCell(rec, "significance"),
			string(rec.Recommendation),
		}
		for col, v := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, rowNum+2)
			f.SetCellValue(sheet, cellName, v)
		}
	}

	path := filepath.Join(w.dir, fmt.Sprintf("run_%s.xlsx", summary.RunID))
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "failed to save report %s", path)
	}
	w.log.Info("decision table written: %s (%d metrics)", path, len(summary.Records))
	return path, nil
}

func sefFlags(rec report.DecisionRecord) string {
	switch {
	case !rec.SEFTheoretical.Defined:
		return "undefined"
	case rec.SEFTheoretical.Critical:
		return "critical"
	case rec.SEFTheoretical.Negative:
		return "negative"
	default:
		return ""
	}
}

func verdictCell(rec report.DecisionRecord, name string) string {
	if sr, ok := rec.Sensitivity[name]; ok {
		return string(sr.Verdict)
	}
	return ""
}

var _ ports.ReportWriterPort = (*ReportWriter)(nil)
