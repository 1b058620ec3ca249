// Package report defines the decision records handed to external reporting
// collaborators (file writers, API, persistence).
package report

import (
	"relpi/domain/core"
	"relpi/domain/metric"
	"relpi/domain/sef"
)

// Recommendation is the per-metric verdict of the pipeline
type Recommendation string

const (
	RecommendRelative     Recommendation = "relative"
	RecommendAbsolute     Recommendation = "absolute"
	RecommendInconclusive Recommendation = "inconclusive"
)

// SensitivityVerdict is the pass/fail outcome of one resampling sub-procedure
type SensitivityVerdict string

const (
	VerdictPass        SensitivityVerdict = "pass"
	VerdictFail        SensitivityVerdict = "fail"
	VerdictNotAchieved SensitivityVerdict = "not_achieved" // e.g. bootstrap never converged
	VerdictSkipped     SensitivityVerdict = "skipped"      // e.g. no group labels available
)

// SensitivityResult holds one named sub-analysis (sample-size, temporal,
// parameter, robustness, significance) with its resampled statistic and
// verdict against the configured tolerance.
type SensitivityResult struct {
	Name      string             `json:"name"`
	Verdict   SensitivityVerdict `json:"verdict"`
	Statistic float64            `json:"statistic"`
	Mean      float64            `json:"mean"`
	Std       float64            `json:"std"`
	CILower   float64            `json:"ci_lower"`
	CIUpper   float64            `json:"ci_upper"`
	PValue    float64            `json:"p_value,omitempty"`
	Tolerance float64            `json:"tolerance"`
	Detail    string             `json:"detail,omitempty"`
}

// DecisionRecord is the per-metric output row of the whole pipeline
type DecisionRecord struct {
	Key             core.MetricKey               `json:"metric"`
	FinalTag        metric.Tag                   `json:"final_tag"`
	RejectionReason metric.RejectionReason       `json:"rejection_reason,omitempty"`
	RejectionDetail string                       `json:"rejection_detail,omitempty"`
	Kappa           float64                      `json:"kappa"`
	Rho             float64                      `json:"rho"`
	SEFTheoretical  sef.Result                   `json:"sef_theoretical"`
	SEFEmpirical    float64                      `json:"sef_empirical"`
	NormalityScore  float64                      `json:"normality_score"`
	Axioms          *metric.AxiomScores          `json:"axioms,omitempty"`
	EtaStar         float64                      `json:"eta_star,omitempty"`
	Sensitivity     map[string]SensitivityResult `json:"sensitivity,omitempty"`
	Recommendation  Recommendation               `json:"recommendation"`
}

// RunSummary aggregates one pipeline execution
type RunSummary struct {
	RunID            core.RunID       `json:"run_id"`
	StartedAt        core.Timestamp   `json:"started_at"`
	FinishedAt       core.Timestamp   `json:"finished_at"`
	Seed             int64            `json:"seed"`
	MetricsIngested  int              `json:"metrics_ingested"`
	MetricsCompliant int              `json:"metrics_compliant"`
	MetricsRejected  int              `json:"metrics_rejected"`
	AxiomThreshold   float64          `json:"axiom_threshold"`
	DataQualityFlag  bool             `json:"data_quality_flag"`
	EtaDecision      string           `json:"eta_decision"`
	Records          []DecisionRecord `json:"records"`
}
