package resampling

import (
	"fmt"
	"math"

	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/domain/sef"
	"relpi/internal/config"
)

const sweepPoints = 21

// ParameterSensitivity sweeps κ over a log-spaced decade around the observed
// value with ρ held fixed, and symmetrically sweeps ρ with κ held fixed.
// The sensitivity index is the normalized range of resulting SEF values:
// how violently the conclusion moves when the sufficient statistics drift.
// Deterministic: no resampling involved.
func ParameterSensitivity(m *metric.Metric, cfg config.PipelineConfig) report.SensitivityResult {
	res := report.SensitivityResult{
		Name:      "parameter",
		Tolerance: cfg.SensitivityTolerance,
		Verdict:   report.VerdictFail,
	}

	st := m.Stats
	observed := sef.Compute(st.Kappa, st.Rho, cfg.SEFNumerator)
	if !observed.Defined || observed.Critical || observed.Value == 0 {
		res.Detail = "observed SEF undefined or critical; sweep not meaningful"
		res.Verdict = report.VerdictSkipped
		return res
	}

	// κ sweep: one decade around the observed value, log-spaced
	var kappaSEFs []float64
	for i := 0; i < sweepPoints; i++ {
		exp := -1 + 2*float64(i)/float64(sweepPoints-1)
		k := st.Kappa * math.Pow(10, exp)
		if r := sef.Compute(k, st.Rho, cfg.SEFNumerator); r.Defined && !r.Critical {
			kappaSEFs = append(kappaSEFs, r.Value)
		}
	}

	// ρ sweep: symmetric window inside (−1, 1), κ fixed
	var rhoSEFs []float64
	halfWidth := math.Min(0.3, 0.99-math.Abs(st.Rho))
	for i := 0; i < sweepPoints; i++ {
		rho := st.Rho - halfWidth + 2*halfWidth*float64(i)/float64(sweepPoints-1)
		if r := sef.Compute(st.Kappa, rho, cfg.SEFNumerator); r.Defined && !r.Critical {
			rhoSEFs = append(rhoSEFs, r.Value)
		}
	}

	kappaIdx := normalizedRange(kappaSEFs, observed.Value)
	rhoIdx := normalizedRange(rhoSEFs, observed.Value)
	res.Statistic = math.Max(kappaIdx, rhoIdx)
	res.Mean, res.Std = meanStd(append(append([]float64{}, kappaSEFs...), rhoSEFs...))

	if !math.IsNaN(res.Statistic) && res.Statistic <= cfg.SensitivityTolerance {
		res.Verdict = report.VerdictPass
	}
	res.Detail = fmt.Sprintf("κ-sweep index=%.3f, ρ-sweep index=%.3f (observed SEF=%.3f)",
		kappaIdx, rhoIdx, observed.Value)
	return res
}

// normalizedRange is (max−min)/|reference| over the finite sweep values
func normalizedRange(values []float64, reference float64) float64 {
	values = finiteValues(values)
	if len(values) == 0 || reference == 0 {
		return math.NaN()
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return (max - min) / math.Abs(reference)
}
