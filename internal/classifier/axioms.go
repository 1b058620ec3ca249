package classifier

import (
	"fmt"
	"math"

	"relpi/adapters/stats/assess"
	"relpi/domain/metric"
)

// AxiomResult carries one axiom gate's score and verdict, retained for
// diagnostics whether or not the metric survives.
type AxiomResult struct {
	GateName      string  `json:"gate_name"`
	Score         float64 `json:"score"`
	Passed        bool    `json:"passed"`
	StandardUsed  string  `json:"standard_used"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

// AxiomGate is the contract each of the four axiom tests satisfies
type AxiomGate interface {
	Execute(sample metric.PairedSample, threshold float64) AxiomResult
}

// InvarianceGate tests invariance to shared effects: low coupling between
// absolute and relative values is evidence the relative measure removed a
// shared component.
type InvarianceGate struct{}

// Execute scores 1 − |corr(absolute, relative)|
func (InvarianceGate) Execute(s metric.PairedSample, threshold float64) AxiomResult {
	score := 1 - math.Abs(assess.Pearson(s.Absolute, s.Relative))
	return gateResult("invariance", score, threshold,
		"1 − |corr(abs, rel)| ≥ threshold (shared component removed)")
}

// OrdinalConsistencyGate tests that the relative measure preserves the rank
// ordering of absolute performance.
type OrdinalConsistencyGate struct{}

// Execute scores |Spearman(absolute, relative)|
func (OrdinalConsistencyGate) Execute(s metric.PairedSample, threshold float64) AxiomResult {
	score := math.Abs(assess.Spearman(s.Absolute, s.Relative))
	return gateResult("ordinal_consistency", score, threshold,
		"|Spearman(abs, rel)| ≥ threshold (rank order preserved)")
}

// ProportionalityGate tests scaling proportionality via the fit quality of
// the best line between absolute and relative values.
type ProportionalityGate struct{}

// Execute scores the R² of the least-squares fit
func (ProportionalityGate) Execute(s metric.PairedSample, threshold float64) AxiomResult {
	score := assess.RSquared(s.Absolute, s.Relative)
	return gateResult("scaling_proportionality", score, threshold,
		"R² of abs→rel fit ≥ threshold (proportional scaling)")
}

// OptimalityGate tests statistical optimality: the relative measure must
// discriminate the outcome classes at least as well as the absolute one.
type OptimalityGate struct{}

// Execute scores 1 when AUC(relative) > AUC(absolute), else 0. An undefined
// AUC (single-class outcome) fails with an explicit reason instead of a
// coerced score.
func (OptimalityGate) Execute(s metric.PairedSample, threshold float64) AxiomResult {
	aucRel, okRel := assess.AbsAUC(s.Relative, s.Outcome)
	aucAbs, okAbs := assess.AbsAUC(s.Absolute, s.Outcome)
	if !okRel || !okAbs {
		return AxiomResult{
			GateName:      "statistical_optimality",
			Score:         0,
			Passed:        false,
			StandardUsed:  "AUC(rel) > AUC(abs) (binary outcome separability)",
			FailureReason: "AUC undefined: outcome column contains a single class",
		}
	}
	score := 0.0
	if aucRel > aucAbs {
		score = 1.0
	}
	res := gateResult("statistical_optimality", score, threshold,
		"AUC(rel) > AUC(abs) (binary outcome separability)")
	if !res.Passed {
		res.FailureReason = fmt.Sprintf("relative AUC %.3f does not exceed absolute AUC %.3f", aucRel, aucAbs)
	}
	return res
}

// Battery runs the four axiom gates in order. It never short-circuits: all
// four scores are always computed and retained.
func Battery() []AxiomGate {
	return []AxiomGate{
		InvarianceGate{},
		OrdinalConsistencyGate{},
		ProportionalityGate{},
		OptimalityGate{},
	}
}

// RunBattery executes every gate and folds the scores into the metric's
// AxiomScores record.
func RunBattery(s metric.PairedSample, threshold float64) ([]AxiomResult, metric.AxiomScores) {
	results := make([]AxiomResult, 0, 4)
	for _, gate := range Battery() {
		results = append(results, gate.Execute(s, threshold))
	}

	scores := metric.AxiomScores{
		Invariance:    results[0].Score,
		Ordinal:       results[1].Score,
		Proportional:  results[2].Score,
		Optimality:    results[3].Score,
		ThresholdUsed: threshold,
	}
	scores.AllAboveThresh = true
	for _, r := range results {
		if !r.Passed {
			scores.AllAboveThresh = false
		}
	}
	return results, scores
}

func gateResult(name string, score, threshold float64, standard string) AxiomResult {
	res := AxiomResult{
		GateName:     name,
		Score:        score,
		Passed:       score >= threshold,
		StandardUsed: standard,
	}
	if !res.Passed {
		res.FailureReason = fmt.Sprintf("score %.3f below active threshold %.2f", score, threshold)
	}
	return res
}
