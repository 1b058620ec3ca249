package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMetrics_UnitPairColumns(t *testing.T) {
	path := writeCSV(t, `outcome,group,pace_a,pace_b
1,s1,10.5,9.0
0,s1,8.0,8.5
win,s2,12.0,10.0
no,s2,7.5,9.5
`)

	metrics, err := NewDatasetReader(path, nil).LoadMetrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(metrics))
	}

	m := metrics[0]
	if m.Key != "pace" {
		t.Errorf("key=%s, want pace", m.Key)
	}
	if m.Sample.Len() != 4 {
		t.Fatalf("expected 4 pairs, got %d", m.Sample.Len())
	}
	// Relative series built as A−B.
	if m.Sample.Relative[0] != 1.5 {
		t.Errorf("relative[0]=%v, want 1.5", m.Sample.Relative[0])
	}
	// "win" parses as a positive outcome, "no" as negative.
	if m.Sample.Outcome[2] != 1 || m.Sample.Outcome[3] != 0 {
		t.Errorf("outcomes=%v", m.Sample.Outcome)
	}
	if m.Sample.Groups[2] != "s2" {
		t.Errorf("groups=%v", m.Sample.Groups)
	}
}

func TestLoadMetrics_PrecomputedRelativeColumn(t *testing.T) {
	path := writeCSV(t, `outcome,speed_a,speed_rel
1,10.0,0.5
0,9.0,-0.25
`)

	metrics, err := NewDatasetReader(path, nil).LoadMetrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 1 || metrics[0].Key != "speed" {
		t.Fatalf("unexpected metrics: %v", metrics)
	}
	if metrics[0].Sample.Relative[1] != -0.25 {
		t.Errorf("precomputed relative not preserved: %v", metrics[0].Sample.Relative)
	}
}

func TestLoadMetrics_StableMetricOrder(t *testing.T) {
	// Metrics come back sorted by base name no matter how the header lays
	// the columns out, so downstream aggregates see a fixed order.
	path := writeCSV(t, `zeta_a,outcome,margin_a,margin_rel,alpha_b,alpha_a,zeta_b
3.0,1,1.5,0.5,2.0,2.5,2.8
2.0,0,1.0,-0.5,1.8,2.1,1.9
`)

	for trial := 0; trial < 5; trial++ {
		metrics, err := NewDatasetReader(path, nil).LoadMetrics(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(metrics) != 3 {
			t.Fatalf("expected 3 metrics, got %d", len(metrics))
		}
		for i, want := range []string{"alpha", "margin", "zeta"} {
			if string(metrics[i].Key) != want {
				t.Fatalf("trial %d: metrics[%d]=%s, want %s", trial, i, metrics[i].Key, want)
			}
		}
	}
}

func TestLoadMetrics_NonNumericCellsMasked(t *testing.T) {
	path := writeCSV(t, `outcome,kicks_a,kicks_b
1,10.0,9.0
0,n/a,8.0
1,11.0,
0,9.5,8.5
`)

	metrics, err := NewDatasetReader(path, nil).LoadMetrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := metrics[0]
	if m.Sample.Len() != 2 {
		t.Errorf("expected 2 valid pairs after masking, got %d", m.Sample.Len())
	}
	if m.Sample.DroppedPairs != 2 {
		t.Errorf("expected 2 dropped pairs, got %d", m.Sample.DroppedPairs)
	}
}

func TestLoadMetrics_MissingOutcomeColumn(t *testing.T) {
	path := writeCSV(t, `pace_a,pace_b
1.0,2.0
`)
	if _, err := NewDatasetReader(path, nil).LoadMetrics(context.Background()); err == nil {
		t.Fatal("expected error for missing outcome column")
	}
}

func TestLoadMetrics_NoMetricColumns(t *testing.T) {
	path := writeCSV(t, `outcome,junk
1,foo
`)
	if _, err := NewDatasetReader(path, nil).LoadMetrics(context.Background()); err == nil {
		t.Fatal("expected error when no metric column pairs resolve")
	}
}

func TestLoadMetrics_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "outcome,pace_a,pace_b\n")
	if _, err := NewDatasetReader(path, nil).LoadMetrics(context.Background()); err == nil {
		t.Fatal("expected error for dataset without data rows")
	}
}
