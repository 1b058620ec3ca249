package etaopt

import (
	"math"
	"testing"

	"relpi/domain/core"
	"relpi/domain/metric"
	"relpi/internal/config"
)

func normalMetric(t *testing.T, key string, st metric.SufficientStats) *metric.Metric {
	t.Helper()
	m := metric.NewMetric(core.MetricKey(key), metric.PairedSample{})
	m.Stats = st
	if err := m.Advance(metric.TagNormal); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestOptimizeMetric_EtaStarTracksCovariance(t *testing.T) {
	// With σ_A=σ_B=1 and ρ=0.9 the covariance-consistent optimum sits at
	// η* ≈ √0.9 ≈ 0.949.
	m := normalMetric(t, "tracked", metric.SufficientStats{
		StdA: 1, StdB: 1, StdRelative: 0.45, Rho: 0.9,
	})

	res := NewOptimizer(config.DefaultPipeline(), nil).OptimizeMetric(m)

	if res.EtaStar < 0.85 || res.EtaStar > 1.0 {
		t.Errorf("eta*=%v, want ≈0.95", res.EtaStar)
	}
	if res.SNRGain < 2 {
		t.Errorf("snr gain=%v, want large for strongly coupled units", res.SNRGain)
	}
	if math.Abs(res.VarianceReduction-0.7975) > 1e-9 {
		t.Errorf("variance reduction=%v, want 1−0.45²", res.VarianceReduction)
	}
}

func TestOptimizeMetric_DegenerateStats(t *testing.T) {
	m := normalMetric(t, "degenerate", metric.SufficientStats{StdA: 0, StdB: 0, StdRelative: 0})
	res := NewOptimizer(config.DefaultPipeline(), nil).OptimizeMetric(m)
	if res.EtaStar != 0 || res.SNRGain != 0 {
		t.Errorf("degenerate stats must yield the zero result, got %+v", res)
	}
}

func TestOptimize_ThresholdLadder(t *testing.T) {
	cases := []struct {
		name          string
		stats         metric.SufficientStats
		wantLevel     string
		wantThreshold float64
		wantFlag      bool
	}{
		{
			name:          "strong evidence raises the bar",
			stats:         metric.SufficientStats{StdA: 1, StdB: 1, StdRelative: 0.45, Rho: 0.9},
			wantLevel:     "strong",
			wantThreshold: 0.7,
		},
		{
			name:          "moderate variance reduction",
			stats:         metric.SufficientStats{StdA: 1, StdB: 1, StdRelative: 0.8, Rho: 0.6},
			wantLevel:     "moderate",
			wantThreshold: 0.6,
		},
		{
			name:          "weak but present benefit",
			stats:         metric.SufficientStats{StdA: 1, StdB: 1, StdRelative: 0.922, Rho: 0.3},
			wantLevel:     "weak",
			wantThreshold: 0.5,
		},
		{
			name:          "negligible benefit flags data quality",
			stats:         metric.SufficientStats{StdA: 1, StdB: 1, StdRelative: 1.42, Rho: 0},
			wantLevel:     "negligible",
			wantThreshold: 0.4,
			wantFlag:      true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := normalMetric(t, "m", tc.stats)
			d := NewOptimizer(config.DefaultPipeline(), nil).Optimize([]*metric.Metric{m})

			if d.Level != tc.wantLevel {
				t.Errorf("level=%s, want %s (gain=%v reduction=%v)",
					d.Level, tc.wantLevel, d.MeanSNRGain, d.MeanVarianceReduction)
			}
			if d.AxiomThreshold != tc.wantThreshold {
				t.Errorf("threshold=%v, want %v", d.AxiomThreshold, tc.wantThreshold)
			}
			if d.DataQualityFlag != tc.wantFlag {
				t.Errorf("flag=%v, want %v", d.DataQualityFlag, tc.wantFlag)
			}
		})
	}
}

func TestOptimize_IgnoresNonNormalMetrics(t *testing.T) {
	raw := metric.NewMetric("raw", metric.PairedSample{})
	rejected := metric.NewMetric("rejected", metric.PairedSample{})
	rejected.Reject(metric.RejectNonNormal, "")

	d := NewOptimizer(config.DefaultPipeline(), nil).Optimize([]*metric.Metric{raw, rejected})

	if len(d.PerMetric) != 0 {
		t.Errorf("only normal-stage metrics participate, got %d results", len(d.PerMetric))
	}
	// An empty normal set has no evidence of benefit: flag it.
	if !d.DataQualityFlag {
		t.Error("empty aggregate must raise the data-quality flag")
	}
}
