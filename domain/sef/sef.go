// Package sef implements the Signal Enhancement Factor model: the closed-form
// ratio of relative-measure to absolute-measure signal-to-noise as a function
// of the variance ratio κ and the inter-unit correlation ρ.
package sef

import (
	"math"
)

// CriticalEpsilon bounds the denominator below which a SEF value is flagged
// critical instead of being reported as a huge finite number.
const CriticalEpsilon = 1e-6

// NumeratorVariant selects the SEF numerator. The measurement-model
// derivation used by the validation pipeline yields (1+κ); the unit-variance
// variant exists in older write-ups and is kept as an explicit alternative so
// the choice can be validated empirically instead of hardcoded.
type NumeratorVariant string

const (
	NumeratorOnePlusKappa NumeratorVariant = "one_plus_kappa" // SEF = (1+κ)/(1+κ−2ρ√κ)
	NumeratorOne          NumeratorVariant = "one"            // SEF = 1/(1+κ−2ρ√κ)
)

// Result carries a computed SEF value together with its degeneracy flags.
// A critical or undefined result must never be silently clamped downstream.
type Result struct {
	Value       float64 `json:"value"`
	Kappa       float64 `json:"kappa"`
	Rho         float64 `json:"rho"`
	Denominator float64 `json:"denominator"`
	Defined     bool    `json:"defined"`  // false when κ≤0 or inputs non-finite
	Critical    bool    `json:"critical"` // |denominator| < CriticalEpsilon
	Negative    bool    `json:"negative"` // denominator < 0: relative regime underperforms
}

// Compute evaluates the SEF at (κ, ρ) under the given numerator variant.
func Compute(kappa, rho float64, variant NumeratorVariant) Result {
	r := Result{Kappa: kappa, Rho: rho}

	if math.IsNaN(kappa) || math.IsNaN(rho) || kappa <= 0 {
		r.Value = math.NaN()
		return r
	}

	denom := 1 + kappa - 2*rho*math.Sqrt(kappa)
	r.Denominator = denom
	r.Defined = true

	numer := 1 + kappa
	if variant == NumeratorOne {
		numer = 1
	}

	if math.Abs(denom) < CriticalEpsilon {
		// Store the raw (possibly enormous) value but flag it.
		r.Critical = true
		r.Value = numer / denom
		return r
	}

	r.Negative = denom < 0
	r.Value = numer / denom
	return r
}

// CriticalCorrelation returns ρ_crit = (1+κ)/(2√κ), the correlation at which
// the denominator vanishes. For κ≠1 this exceeds 1 and is unreachable.
func CriticalCorrelation(kappa float64) float64 {
	if kappa <= 0 {
		return math.NaN()
	}
	return (1 + kappa) / (2 * math.Sqrt(kappa))
}

// DistanceToCritical reports how far the observed correlation sits below the
// critical line; used for safety-margin reporting.
func DistanceToCritical(kappa, rho float64) float64 {
	crit := CriticalCorrelation(kappa)
	if math.IsNaN(crit) {
		return math.NaN()
	}
	return crit - rho
}

// IsImprovement reports whether the relative measure beats the absolute one.
func IsImprovement(r Result) bool {
	return r.Defined && !r.Critical && !r.Negative && r.Value > 1
}
