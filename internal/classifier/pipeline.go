// Package classifier implements the staged metric classification pipeline:
// every ingested metric starts Raw, advances to Normal when both measurement
// regimes pass the normality gate, and to AxiomCompliant when all four axiom
// gates clear the active threshold. Rejected metrics are kept with their
// failure reason; nothing is deleted from the audit trail.
package classifier

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"relpi/adapters/stats/assess"
	"relpi/domain/metric"
	"relpi/internal"
	"relpi/internal/config"
)

// Pipeline runs the Raw → Normal → AxiomCompliant state machine
type Pipeline struct {
	cfg config.PipelineConfig
	log *internal.Logger
}

// NewPipeline creates a classifier pipeline with explicit configuration
func NewPipeline(cfg config.PipelineConfig, log *internal.Logger) *Pipeline {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Pipeline{cfg: cfg, log: log}
}

// ClassifyRaw runs the Raw → Normal transition on every metric in place.
// A compute failure in one metric rejects only that metric.
func (p *Pipeline) ClassifyRaw(metrics []*metric.Metric) {
	for _, m := range metrics {
		p.guard(m, func() { p.classifyRawOne(m) })
	}
}

func (p *Pipeline) classifyRawOne(m *metric.Metric) {
	if m.Rejected() {
		return
	}

	if m.Sample.Len() < p.cfg.MinSampleSize {
		m.Reject(metric.RejectInsufficientData,
			fmt.Sprintf("%d valid pairs, need %d", m.Sample.Len(), p.cfg.MinSampleSize))
		return
	}

	st, ok := computeSufficientStats(m.Sample)
	if !ok {
		m.Reject(metric.RejectZeroVariance, "absolute variance is zero, κ undefined")
		return
	}
	m.Stats = st

	normAbs := assess.Normality(m.Sample.Absolute, p.cfg.NormalityThreshold)
	normRel := assess.Normality(m.Sample.Relative, p.cfg.NormalityThreshold)
	m.NormalityScore = math.Min(normAbs.Score, normRel.Score)

	// Both regimes must pass; only the conjunction advances the metric.
	if !normAbs.IsNormal || !normRel.IsNormal {
		m.Reject(metric.RejectNonNormal,
			fmt.Sprintf("normality scores abs=%.4f rel=%.4f below %.3f (%s/%s)",
				normAbs.Score, normRel.Score, p.cfg.NormalityThreshold, normAbs.Method, normRel.Method))
		return
	}

	if err := m.Advance(metric.TagNormal); err != nil {
		m.Reject(metric.RejectComputeFailure, err.Error())
	}
}

// ClassifyNormal runs the Normal → AxiomCompliant transition using the
// active axiom threshold (set by the eta optimizer, not a fixed constant).
func (p *Pipeline) ClassifyNormal(metrics []*metric.Metric, axiomThreshold float64) {
	for _, m := range metrics {
		p.guard(m, func() { p.classifyNormalOne(m, axiomThreshold) })
	}
}

func (p *Pipeline) classifyNormalOne(m *metric.Metric, threshold float64) {
	if m.Rejected() || m.Tag != metric.TagNormal {
		return
	}

	results, scores := RunBattery(m.Sample, threshold)
	m.Axioms = &scores

	if !scores.AllAboveThresh {
		failed := ""
		for _, r := range results {
			if !r.Passed {
				if failed != "" {
					failed += ", "
				}
				failed += fmt.Sprintf("%s=%.3f", r.GateName, r.Score)
			}
		}
		m.Reject(metric.RejectAxiomThreshold,
			fmt.Sprintf("below threshold %.2f: %s", threshold, failed))
		return
	}

	if err := m.Advance(metric.TagAxiomCompliant); err != nil {
		m.Reject(metric.RejectComputeFailure, err.Error())
	}
}

// Compliant filters the metrics that reached the terminal surviving state
func Compliant(metrics []*metric.Metric) []*metric.Metric {
	var out []*metric.Metric
	for _, m := range metrics {
		if m.Tag == metric.TagAxiomCompliant {
			out = append(out, m)
		}
	}
	return out
}

// ByTag counts metrics per current tag, for run summaries
func ByTag(metrics []*metric.Metric) map[metric.Tag]int {
	counts := make(map[metric.Tag]int)
	for _, m := range metrics {
		counts[m.Tag]++
	}
	return counts
}

// guard converts a panic inside a per-metric stage into a rejection so one
// malformed metric cannot abort the batch.
func (p *Pipeline) guard(m *metric.Metric, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("metric %s: stage panic: %v", m.Key, r)
			m.Reject(metric.RejectComputeFailure, fmt.Sprintf("stage panic: %v", r))
		}
	}()
	fn()
}

// computeSufficientStats derives (μ_A, μ_B, σ_A, σ_B, ρ, κ) once from the
// valid paired sample. Unit B is reconstructed from relative = A − B.
// Returns false when κ is undefined (zero unit-A variance).
func computeSufficientStats(s metric.PairedSample) (metric.SufficientStats, bool) {
	unitB := s.UnitB()

	meanA, _ := stats.Mean(s.Absolute)
	meanB, _ := stats.Mean(unitB)
	stdA, _ := stats.StandardDeviationSample(s.Absolute)
	stdB, _ := stats.StandardDeviationSample(unitB)
	stdRel, _ := stats.StandardDeviationSample(s.Relative)

	kappa, ok := assess.VarianceRatio(s.Absolute, unitB)
	if !ok {
		return metric.SufficientStats{}, false
	}

	return metric.SufficientStats{
		MeanA:       meanA,
		MeanB:       meanB,
		StdA:        stdA,
		StdB:        stdB,
		StdRelative: stdRel,
		Rho:         assess.Pearson(s.Absolute, unitB),
		Kappa:       kappa,
		SampleSize:  s.Len(),
	}, true
}

// ComputeSufficientStats exposes the stage statistic derivation for
// components that re-derive stats on resampled or trimmed data.
func ComputeSufficientStats(s metric.PairedSample) (metric.SufficientStats, bool) {
	return computeSufficientStats(s)
}
