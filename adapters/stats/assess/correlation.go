package assess

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Pearson computes the Pearson correlation on a paired sample. Returns 0
// (not NaN) when either vector has zero variance so the SEF denominator
// stays well-defined.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Spearman computes the rank correlation on a paired sample, averaging ranks
// over ties.
func Spearman(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 3 {
		return 0
	}
	return Pearson(Ranks(a), Ranks(b))
}

// Ranks converts values to 1-based ranks, assigning tied values their
// average rank.
func Ranks(data []float64) []float64 {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return data[idx[i]] < data[idx[j]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && data[idx[j]] == data[idx[i]] {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j
	}
	return ranks
}

// VarianceRatio computes κ = var(b)/var(a). The second return is false when
// var(a) is zero, in which case κ is undefined and the metric must be
// excluded rather than clamped.
func VarianceRatio(a, b []float64) (float64, bool) {
	if len(a) < 2 || len(b) < 2 {
		return math.NaN(), false
	}
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)
	if varA == 0 || math.IsNaN(varA) || math.IsNaN(varB) {
		return math.NaN(), false
	}
	return varB / varA, true
}

// RSquared fits the least-squares line b = α + β·a and returns the
// coefficient of determination. Zero-variance inputs yield 0.
func RSquared(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 3 {
		return 0
	}
	alpha, beta := stat.LinearRegression(a, b, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return 0
	}
	r2 := stat.RSquaredFrom(fitted(a, alpha, beta), b, nil)
	if math.IsNaN(r2) || r2 < 0 {
		return 0
	}
	return r2
}

func fitted(a []float64, alpha, beta float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = alpha + beta*v
	}
	return out
}
