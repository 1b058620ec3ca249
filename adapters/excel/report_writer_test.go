package excel

import (
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/domain/sef"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	summary := &report.RunSummary{
		RunID: "w1",
		Records: []report.DecisionRecord{
			{
				Key:            "pace",
				FinalTag:       metric.TagAxiomCompliant,
				Kappa:          1.0,
				Rho:            0.5,
				SEFTheoretical: sef.Compute(1.0, 0.5, sef.NumeratorOnePlusKappa),
				Recommendation: report.RecommendRelative,
				Sensitivity: map[string]report.SensitivityResult{
					"temporal": {Name: "temporal", Verdict: report.VerdictPass},
				},
			},
			{
				Key:             "flat",
				FinalTag:        metric.TagRejected,
				RejectionReason: metric.RejectZeroVariance,
				Recommendation:  report.RecommendInconclusive,
			},
		},
	}

	path, err := NewReportWriter(dir, nil).WriteReport(context.Background(), summary)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Decisions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "metric" {
		t.Errorf("header row wrong: %v", rows[0])
	}
	if rows[1][0] != "pace" || rows[2][0] != "flat" {
		t.Errorf("metric rows wrong: %v / %v", rows[1], rows[2])
	}
	if rows[1][14] != "relative" {
		t.Errorf("recommendation cell=%q, want relative", rows[1][14])
	}
	// The undefined SEF of the rejected metric is flagged, not blank-zeroed.
	if rows[2][6] != "undefined" {
		t.Errorf("sef_flags cell=%q, want undefined", rows[2][6])
	}
}
