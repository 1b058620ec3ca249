package resampling

import (
	"fmt"
	"math/rand"

	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/internal/config"
)

// resamplesPerSize bounds the inner bootstrap loop of the convergence sweep;
// the full-depth bootstrap lives in the significance procedure.
const resamplesPerSize = 200

// SampleSizeConvergence finds the smallest sample size at which the
// bootstrapped SEF's coefficient of variation drops below the configured
// tolerance. When no candidate size converges the result is an explicit
// not-achieved state, never an extrapolation from the largest tested size.
func SampleSizeConvergence(m *metric.Metric, cfg config.PipelineConfig, rng *rand.Rand) report.SensitivityResult {
	res := report.SensitivityResult{
		Name:      "sample_size",
		Tolerance: cfg.ConvergenceTolerance,
		Verdict:   report.VerdictNotAchieved,
	}

	n := m.Sample.Len()
	for _, size := range candidateSizes(cfg.MinSampleSize, n) {
		sefs := make([]float64, 0, resamplesPerSize)
		for b := 0; b < resamplesPerSize; b++ {
			sub := m.Sample.Subset(bootstrapIndices(rng, n, size))
			if r, ok := sampleSEF(sub, cfg.SEFNumerator); ok && !r.Critical {
				sefs = append(sefs, r.Value)
			}
		}
		if len(sefs) < resamplesPerSize/2 {
			continue
		}

		cv := coefficientOfVariation(sefs)
		mean, std := meanStd(sefs)
		res.Mean, res.Std, res.Statistic = mean, std, cv

		if cv <= cfg.ConvergenceTolerance {
			res.Verdict = report.VerdictPass
			res.Detail = fmt.Sprintf("minimum reliable sample size %d (CV=%.4f)", size, cv)
			return res
		}
	}

	res.Detail = fmt.Sprintf("CV never dropped below %.3f within n=%d", cfg.ConvergenceTolerance, n)
	return res
}

// candidateSizes builds the increasing sample-size sequence to test: doubled
// steps from the minimum up to the full sample.
func candidateSizes(minSize, n int) []int {
	var sizes []int
	for size := minSize * 2; size < n; size *= 2 {
		sizes = append(sizes, size)
	}
	sizes = append(sizes, n)
	return sizes
}
