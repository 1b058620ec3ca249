package metric

import (
	"fmt"
	"math"

	"relpi/domain/core"
)

// Tag represents the classification stage a metric currently holds.
// Tags only advance (raw → normal → axiom_compliant); a metric can be
// rejected at any stage but is never un-rejected within one run.
type Tag string

const (
	TagRaw            Tag = "raw"
	TagNormal         Tag = "normal"
	TagAxiomCompliant Tag = "axiom_compliant"
	TagRejected       Tag = "rejected"
)

// Rank orders tags for the monotonic-advance invariant. Rejected is terminal
// and carries no rank.
func (t Tag) Rank() int {
	switch t {
	case TagRaw:
		return 0
	case TagNormal:
		return 1
	case TagAxiomCompliant:
		return 2
	default:
		return -1
	}
}

// RejectionReason records why a metric was dropped from the pipeline
type RejectionReason string

const (
	RejectInsufficientData RejectionReason = "insufficient_data"
	RejectZeroVariance     RejectionReason = "zero_variance"
	RejectNonNormal        RejectionReason = "non_normal"
	RejectAxiomThreshold   RejectionReason = "axiom_threshold"
	RejectComputeFailure   RejectionReason = "compute_failure"
)

// SufficientStats holds the per-stage sufficient statistics
// (μ_A, μ_B, σ_A, σ_B, ρ, κ) computed once from the currently valid paired
// sample. Immutable for the stage; re-derived only when the sample itself
// changes (e.g. after outlier trimming).
type SufficientStats struct {
	MeanA       float64 `json:"mean_a"`
	MeanB       float64 `json:"mean_b"`
	StdA        float64 `json:"std_a"`
	StdB        float64 `json:"std_b"`
	StdRelative float64 `json:"std_relative"`
	Rho         float64 `json:"rho"`   // Pearson correlation between units A and B
	Kappa       float64 `json:"kappa"` // variance ratio σ_B² / σ_A²
	SampleSize  int     `json:"sample_size"`
}

// KappaDefined reports whether the variance ratio could be computed.
func (s SufficientStats) KappaDefined() bool {
	return !math.IsNaN(s.Kappa) && s.Kappa > 0
}

// AxiomScores holds the four axiom test scores, each in [0,1].
type AxiomScores struct {
	Invariance     float64 `json:"invariance"`      // 1 − |corr(abs, rel)|
	Ordinal        float64 `json:"ordinal"`         // |Spearman(abs, rel)|
	Proportional   float64 `json:"proportionality"` // R² of best-fit line
	Optimality     float64 `json:"optimality"`      // AUC(rel) > AUC(abs)
	ThresholdUsed  float64 `json:"threshold_used"`
	AllAboveThresh bool    `json:"all_above_threshold"`
}

// Metric is a named performance indicator moving through the pipeline.
// It is created once per dataset load, mutated in place by classifier stages
// (tag, stats, scores), and treated as read-only by the resampling engine.
type Metric struct {
	Key    core.MetricKey
	Sample PairedSample

	Tag             Tag
	RejectionReason RejectionReason
	RejectionDetail string

	Stats          SufficientStats
	NormalityScore float64 // min of the absolute/relative normality scores
	Axioms         *AxiomScores
}

// NewMetric creates a raw-stage metric from a validity-masked sample
func NewMetric(key core.MetricKey, sample PairedSample) *Metric {
	return &Metric{
		Key:    key,
		Sample: sample,
		Tag:    TagRaw,
	}
}

// Advance moves the metric forward one stage. Regressions are a programming
// error and are reported rather than applied.
func (m *Metric) Advance(to Tag) error {
	if m.Tag == TagRejected {
		return fmt.Errorf("metric %s already rejected (%s)", m.Key, m.RejectionReason)
	}
	if to.Rank() <= m.Tag.Rank() {
		return fmt.Errorf("metric %s: tag cannot regress from %s to %s", m.Key, m.Tag, to)
	}
	m.Tag = to
	return nil
}

// Reject drops the metric with a recorded reason. The metric stays in the
// report; rejection is terminal for the run.
func (m *Metric) Reject(reason RejectionReason, detail string) {
	if m.Tag == TagRejected {
		return
	}
	m.Tag = TagRejected
	m.RejectionReason = reason
	m.RejectionDetail = detail
}

// Rejected reports whether the metric was dropped.
func (m *Metric) Rejected() bool {
	return m.Tag == TagRejected
}
