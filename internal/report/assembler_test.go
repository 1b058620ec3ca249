package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relpi/domain/core"
	"relpi/domain/metric"
	domreport "relpi/domain/report"
	"relpi/internal/config"
	"relpi/internal/etaopt"
)

func sampleWithOutcomes() metric.PairedSample {
	abs := []float64{-0.2, -1.1, 0.7, 1.4, 0.5, 0.9, -0.3, 1.8, -1.6, 0.1}
	rel := []float64{0.5, -0.8, 1.1, 0.9, -1.2, 0.4, -0.6, 1.5, -0.9, 0.2}
	outcomes := make([]int, len(rel))
	for i, v := range rel {
		if v > 0 {
			outcomes[i] = 1
		}
	}
	return metric.NewPairedSample(abs, rel, outcomes, nil)
}

func TestAssemble(t *testing.T) {
	cfg := config.DefaultPipeline()

	compliant := metric.NewMetric("zeta", sampleWithOutcomes())
	compliant.Stats = metric.SufficientStats{Kappa: 1, Rho: 0.5, StdA: 1, StdB: 1, StdRelative: 1}
	require.NoError(t, compliant.Advance(metric.TagNormal))
	require.NoError(t, compliant.Advance(metric.TagAxiomCompliant))

	rejected := metric.NewMetric("alpha", sampleWithOutcomes())
	rejected.Reject(metric.RejectZeroVariance, "absolute variance is zero, κ undefined")

	decision := etaopt.Decision{
		PerMetric:      []etaopt.MetricResult{{Key: "zeta", EtaStar: 0.42}},
		AxiomThreshold: 0.6,
		Level:          "moderate",
	}
	sensitivity := map[core.MetricKey]map[string]domreport.SensitivityResult{
		"zeta": {"significance": {Name: "significance", Verdict: domreport.VerdictPass}},
	}

	summary := NewAssembler(cfg).Assemble("run-1", []*metric.Metric{compliant, rejected}, decision, sensitivity)

	assert.Equal(t, 2, summary.MetricsIngested)
	assert.Equal(t, 1, summary.MetricsCompliant)
	assert.Equal(t, 1, summary.MetricsRejected)
	assert.Equal(t, 0.6, summary.AxiomThreshold)
	assert.Equal(t, "moderate", summary.EtaDecision)

	// Records sorted by key: alpha before zeta.
	require.Len(t, summary.Records, 2)
	assert.Equal(t, core.MetricKey("alpha"), summary.Records[0].Key)
	assert.Equal(t, core.MetricKey("zeta"), summary.Records[1].Key)

	zeta := summary.Records[1]
	assert.True(t, zeta.SEFTheoretical.Defined)
	assert.InDelta(t, 2.0, zeta.SEFTheoretical.Value, 1e-9) // (1+1)/(2−2·0.5·1)
	assert.Equal(t, domreport.RecommendRelative, zeta.Recommendation)
	assert.Equal(t, 0.42, zeta.EtaStar)
	assert.Equal(t, domreport.VerdictPass, zeta.Sensitivity["significance"].Verdict)

	alpha := summary.Records[0]
	assert.False(t, alpha.SEFTheoretical.Defined)
	assert.Equal(t, domreport.RecommendInconclusive, alpha.Recommendation)
	assert.Equal(t, metric.RejectZeroVariance, alpha.RejectionReason)
}

func TestAssemble_EmpiricalSEF(t *testing.T) {
	m := metric.NewMetric("emp", sampleWithOutcomes())
	m.Stats = metric.SufficientStats{Kappa: 1, Rho: 0.5}

	summary := NewAssembler(config.DefaultPipeline()).Assemble("run-2", []*metric.Metric{m}, etaopt.Decision{}, nil)

	emp := summary.Records[0].SEFEmpirical
	require.False(t, math.IsNaN(emp))
	// Outcomes follow the relative sign exactly, so the relative regime's
	// separability deviation dominates the absolute one.
	assert.Greater(t, emp, 1.0)
}

func TestRecommend_CriticalIsInconclusive(t *testing.T) {
	m := metric.NewMetric("crit", sampleWithOutcomes())
	m.Stats = metric.SufficientStats{Kappa: 1, Rho: 1 - 2e-7}

	summary := NewAssembler(config.DefaultPipeline()).Assemble("run-3", []*metric.Metric{m}, etaopt.Decision{}, nil)

	rec := summary.Records[0]
	assert.True(t, rec.SEFTheoretical.Critical)
	assert.Equal(t, domreport.RecommendInconclusive, rec.Recommendation)
}

func TestRenderMarkdown(t *testing.T) {
	summary := &domreport.RunSummary{
		RunID:           "run-md",
		Seed:            42,
		MetricsIngested: 1,
		AxiomThreshold:  0.5,
		EtaDecision:     "weak",
		DataQualityFlag: true,
		Records: []domreport.DecisionRecord{
			{
				Key:            "pace",
				FinalTag:       metric.TagAxiomCompliant,
				Kappa:          1,
				Rho:            0.5,
				Recommendation: domreport.RecommendRelative,
				Sensitivity: map[string]domreport.SensitivityResult{
					"temporal": {Name: "temporal", Verdict: domreport.VerdictSkipped, Detail: "no grouping key"},
				},
			},
		},
	}

	md := RenderMarkdown(summary)
	assert.Contains(t, md, "run-md")
	assert.Contains(t, md, "Data quality flag raised")
	assert.Contains(t, md, "| pace |")
	assert.Contains(t, md, "temporal")
	assert.True(t, strings.Contains(md, "relative"))
}
