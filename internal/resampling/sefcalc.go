// Package resampling implements the five sensitivity sub-procedures run over
// every axiom-compliant metric: sample-size convergence, temporal/group
// stability, parameter sensitivity, robustness sweeps, and statistical
// validation. Procedures never mutate a metric; each produces an independent
// SensitivityResult and all five always run, so the final report shows the
// full robustness profile even when earlier procedures fail.
package resampling

import (
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"relpi/domain/metric"
	"relpi/domain/sef"
	"relpi/internal/classifier"
)

// sampleSEF recomputes the sufficient statistics on a (sub)sample and
// evaluates the SEF. The second return is false when the sample is
// degenerate (zero unit-A variance) or the SEF is undefined.
func sampleSEF(s metric.PairedSample, variant sef.NumeratorVariant) (sef.Result, bool) {
	st, ok := classifier.ComputeSufficientStats(s)
	if !ok {
		return sef.Result{}, false
	}
	r := sef.Compute(st.Kappa, st.Rho, variant)
	return r, r.Defined
}

// bootstrapIndices draws size indices with replacement from [0, n)
func bootstrapIndices(rng *rand.Rand, n, size int) []int {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// finiteValues filters the non-critical, finite SEF values of a sweep
func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// meanStd returns mean and sample standard deviation, tolerating short input
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, _ := stats.Mean(values)
	if len(values) < 2 {
		return mean, 0
	}
	std, _ := stats.StandardDeviationSample(values)
	return mean, std
}

// coefficientOfVariation returns std/|mean|, NaN when the mean vanishes
func coefficientOfVariation(values []float64) float64 {
	mean, std := meanStd(values)
	if math.IsNaN(mean) || mean == 0 {
		return math.NaN()
	}
	return std / math.Abs(mean)
}
