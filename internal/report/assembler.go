// Package report assembles per-metric pipeline outcomes into the decision
// table handed to the external rendering collaborators.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"relpi/adapters/stats/assess"
	"relpi/domain/core"
	"relpi/domain/metric"
	domreport "relpi/domain/report"
	"relpi/domain/sef"
	"relpi/internal/config"
	"relpi/internal/etaopt"
)

// Assembler folds classification, optimization, and sensitivity outputs into
// a RunSummary.
type Assembler struct {
	cfg config.PipelineConfig
}

// NewAssembler creates a report assembler
func NewAssembler(cfg config.PipelineConfig) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble builds the decision record for every ingested metric, surviving
// or rejected. Records are sorted by metric key for stable output.
func (a *Assembler) Assemble(
	runID core.RunID,
	metrics []*metric.Metric,
	decision etaopt.Decision,
	sensitivity map[core.MetricKey]map[string]domreport.SensitivityResult,
) *domreport.RunSummary {

	etaByKey := make(map[string]float64, len(decision.PerMetric))
	for _, r := range decision.PerMetric {
		etaByKey[r.Key] = r.EtaStar
	}

	summary := &domreport.RunSummary{
		RunID:           runID,
		Seed:            a.cfg.RandomSeed,
		MetricsIngested: len(metrics),
		AxiomThreshold:  decision.AxiomThreshold,
		DataQualityFlag: decision.DataQualityFlag,
		EtaDecision:     decision.Level,
	}

	for _, m := range metrics {
		rec := a.assembleOne(m, etaByKey, sensitivity[m.Key])
		summary.Records = append(summary.Records, rec)

		switch m.Tag {
		case metric.TagAxiomCompliant:
			summary.MetricsCompliant++
		case metric.TagRejected:
			summary.MetricsRejected++
		}
	}

	sort.Slice(summary.Records, func(i, j int) bool {
		return summary.Records[i].Key < summary.Records[j].Key
	})
	return summary
}

func (a *Assembler) assembleOne(m *metric.Metric, etaByKey map[string]float64, sens map[string]domreport.SensitivityResult) domreport.DecisionRecord {
	rec := domreport.DecisionRecord{
		Key:             m.Key,
		FinalTag:        m.Tag,
		RejectionReason: m.RejectionReason,
		RejectionDetail: m.RejectionDetail,
		Kappa:           m.Stats.Kappa,
		Rho:             m.Stats.Rho,
		NormalityScore:  m.NormalityScore,
		Axioms:          m.Axioms,
		EtaStar:         etaByKey[m.Key.String()],
		Sensitivity:     sens,
	}

	if m.Stats.KappaDefined() {
		rec.SEFTheoretical = sef.Compute(m.Stats.Kappa, m.Stats.Rho, a.cfg.SEFNumerator)
	}
	rec.SEFEmpirical = empiricalSEF(m.Sample)
	rec.Recommendation = recommend(rec.SEFTheoretical)
	return rec
}

// empiricalSEF proxies the SEF through outcome separability: the ratio of
// the relative and absolute regimes' AUC deviations from chance. NaN when
// either AUC is undefined or the absolute regime sits exactly at chance.
func empiricalSEF(s metric.PairedSample) float64 {
	aucRel, okRel := assess.AbsAUC(s.Relative, s.Outcome)
	aucAbs, okAbs := assess.AbsAUC(s.Absolute, s.Outcome)
	if !okRel || !okAbs || aucAbs == 0.5 {
		return math.NaN()
	}
	return (aucRel - 0.5) / (aucAbs - 0.5)
}

// recommend decides relative vs absolute from the SEF verdict. The final tag
// and rejection reason travel alongside in the record, so a relative
// recommendation on a rejected metric is visible as such. A critical or
// undefined SEF is inconclusive, never silently relative.
func recommend(r sef.Result) domreport.Recommendation {
	if !r.Defined || r.Critical {
		return domreport.RecommendInconclusive
	}
	if sef.IsImprovement(r) {
		return domreport.RecommendRelative
	}
	return domreport.RecommendAbsolute
}

// RenderMarkdown renders the decision table as a markdown document for the
// API and file writers.
func RenderMarkdown(s *domreport.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pipeline run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Metrics ingested: %d (compliant %d, rejected %d)\n",
		s.MetricsIngested, s.MetricsCompliant, s.MetricsRejected)
	fmt.Fprintf(&b, "- Axiom threshold: %.2f (η decision: %s)\n", s.AxiomThreshold, s.EtaDecision)
	fmt.Fprintf(&b, "- Seed: %d\n", s.Seed)
	if s.DataQualityFlag {
		b.WriteString("- **Data quality flag raised: investigate before trusting axiom validation**\n")
	}
	b.WriteString("\n| Metric | Tag | κ | ρ | SEF | SEF (emp) | Recommendation | Notes |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")

	for _, rec := range s.Records {
		sefCell := fmt.Sprintf("%.3f", rec.SEFTheoretical.Value)
		if !rec.SEFTheoretical.Defined {
			sefCell = "undefined"
		} else if rec.SEFTheoretical.Critical {
			sefCell = "critical"
		}
		notes := string(rec.RejectionReason)
		if rec.RejectionDetail != "" {
			notes = rec.RejectionDetail
		}
		fmt.Fprintf(&b, "| %s | %s | %.3f | %.3f | %s | %.3f | %s | %s |\n",
			rec.Key, rec.FinalTag, rec.Kappa, rec.Rho, sefCell, rec.SEFEmpirical,
			rec.Recommendation, notes)
	}

	b.WriteString("\n## Sensitivity\n\n")
	for _, rec := range s.Records {
		if len(rec.Sensitivity) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", rec.Key)
		for _, name := range []string{"sample_size", "temporal", "parameter", "robustness", "significance"} {
			sr, ok := rec.Sensitivity[name]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s: **%s** (stat=%.4f, tol=%.3f) %s\n",
				sr.Name, sr.Verdict, sr.Statistic, sr.Tolerance, sr.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}
