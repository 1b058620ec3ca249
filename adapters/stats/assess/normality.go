// Package assess provides the pure statistical assessors the pipeline stages
// are built on: normality testing, correlation and variance estimators, and
// rank-based discriminative power. All functions are side-effect free and
// return sentinel values instead of panicking; the pipeline decides whether a
// degenerate result drops the metric.
package assess

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NormalityResult is the outcome of a normality test. Score is continuous
// (a p-value or p-value-equivalent) so downstream thresholds can be tuned
// without re-running the test.
type NormalityResult struct {
	IsNormal  bool    `json:"is_normal"`
	Score     float64 `json:"score"`
	Statistic float64 `json:"statistic"`
	Method    string  `json:"method"`
}

// NormalityTest is a capability-checked strategy for distributional testing.
// The formal test is preferred; the moment heuristic is the explicit fallback
// when the formal statistic is not computable.
type NormalityTest interface {
	Name() string
	Test(sample []float64, alpha float64) NormalityResult
}

// Normality runs the formal test and falls back to the moment heuristic when
// the formal statistic is non-finite or the sample is too small.
func Normality(sample []float64, alpha float64) NormalityResult {
	formal := ShapiroFrancia{}
	res := formal.Test(sample, alpha)
	if math.IsNaN(res.Statistic) || math.IsInf(res.Statistic, 0) {
		return MomentHeuristic{}.Test(sample, alpha)
	}
	return res
}

// ShapiroFrancia implements the Shapiro-Francia W' test: the squared
// correlation between the ordered sample and the expected normal order
// statistics, with Royston's normal approximation for the p-value.
type ShapiroFrancia struct{}

// Name returns the test name
func (ShapiroFrancia) Name() string { return "shapiro_francia" }

// Test computes W' and its p-value. Valid for 5 ≤ n ≤ 5000; outside that
// range the statistic is reported as NaN so the caller falls back.
func (ShapiroFrancia) Test(sample []float64, alpha float64) NormalityResult {
	n := len(sample)
	res := NormalityResult{Method: "shapiro_francia", Statistic: math.NaN(), Score: 0}
	if n < 5 || n > 5000 {
		return res
	}

	sorted := make([]float64, n)
	copy(sorted, sample)
	sort.Float64s(sorted)

	// Blom scores: expected normal order statistics
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	m := make([]float64, n)
	for i := 0; i < n; i++ {
		p := (float64(i+1) - 0.375) / (float64(n) + 0.25)
		m[i] = norm.Quantile(p)
	}

	mean := stat.Mean(sorted, nil)
	var sumMX, sumMM, sumXX float64
	for i := 0; i < n; i++ {
		sumMX += m[i] * sorted[i]
		sumMM += m[i] * m[i]
		sumXX += (sorted[i] - mean) * (sorted[i] - mean)
	}
	if sumXX == 0 || sumMM == 0 {
		// Constant sample: the statistic is undefined.
		return res
	}

	w := (sumMX * sumMX) / (sumMM * sumXX)
	res.Statistic = w

	// Royston (1993) approximation for the W' null distribution
	logN := math.Log(float64(n))
	mu := -1.2725 + 1.0521*(math.Log(logN)-logN)
	sigma := 1.0308 - 0.26758*(math.Log(logN)+2/logN)
	if sigma <= 0 || w >= 1 {
		res.Score = 1
		res.IsNormal = true
		return res
	}
	z := (math.Log(1-w) - mu) / sigma
	p := norm.Survival(z)

	res.Score = p
	res.IsNormal = p > alpha
	return res
}

// MomentHeuristic is the skewness/kurtosis fallback: approximately normal
// when |skew| < 1 and |kurtosis − 3| < 2.
type MomentHeuristic struct{}

// Name returns the test name
func (MomentHeuristic) Name() string { return "moment_heuristic" }

// Test scores the sample by how far its third and fourth moments sit inside
// the heuristic bounds. The score is not a p-value but lives on the same
// [0,1] scale so the pipeline threshold applies uniformly.
func (MomentHeuristic) Test(sample []float64, alpha float64) NormalityResult {
	res := NormalityResult{Method: "moment_heuristic"}
	if len(sample) < 3 {
		res.Statistic = math.NaN()
		return res
	}

	skew := stat.Skew(sample, nil)
	exKurt := stat.ExKurtosis(sample, nil)
	if math.IsNaN(skew) || math.IsNaN(exKurt) {
		res.Statistic = math.NaN()
		return res
	}

	res.Statistic = math.Max(math.Abs(skew), math.Abs(exKurt)/2)
	res.IsNormal = math.Abs(skew) < 1 && math.Abs(exKurt) < 2

	// Distance-inside-bounds score, clipped to [0,1]
	score := 1 - res.Statistic
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	res.Score = score
	return res
}
