// Package app wires the pipeline stages into full runs: dataset → classifier
// → eta optimizer → axiom validation → resampling → report.
package app

import (
	"context"

	"relpi/domain/core"
	"relpi/domain/report"
	"relpi/internal"
	"relpi/internal/classifier"
	"relpi/internal/config"
	"relpi/internal/errors"
	"relpi/internal/etaopt"
	"relpi/internal/resampling"
	reportasm "relpi/internal/report"
	"relpi/ports"
)

// PipelineService orchestrates one full validation run
type PipelineService struct {
	cfg     config.PipelineConfig
	dataset ports.DatasetPort
	rngPort ports.RNGPort
	repo    ports.RunRepositoryPort // optional
	writer  ports.ReportWriterPort  // optional
	log     *internal.Logger
}

// NewPipelineService creates the run orchestrator. Repository and writer are
// optional collaborators; a nil port simply skips that boundary.
func NewPipelineService(
	cfg config.PipelineConfig,
	dataset ports.DatasetPort,
	rngPort ports.RNGPort,
	repo ports.RunRepositoryPort,
	writer ports.ReportWriterPort,
	log *internal.Logger,
) *PipelineService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &PipelineService{
		cfg:     cfg,
		dataset: dataset,
		rngPort: rngPort,
		repo:    repo,
		writer:  writer,
		log:     log,
	}
}

// Execute runs the full pipeline and returns the assembled run summary.
// Identical data and identical seed yield identical summaries.
func (s *PipelineService) Execute(ctx context.Context) (*report.RunSummary, error) {
	runID := core.RunID(core.NewID())
	startedAt := core.Now()

	metrics, err := s.dataset.LoadMetrics(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dataset load failed")
	}
	if len(metrics) == 0 {
		return nil, errors.DatasetInvalid("dataset resolved zero metrics")
	}
	s.log.Info("run %s: %d metrics ingested", runID, len(metrics))

	pipeline := classifier.NewPipeline(s.cfg, s.log)
	pipeline.ClassifyRaw(metrics)

	optimizer := etaopt.NewOptimizer(s.cfg, s.log)
	decision := optimizer.Optimize(metrics)

	// A data-quality flag halts advancement to axiom validation for this
	// run; the audit report is still assembled and emitted in full.
	var sensitivity map[core.MetricKey]map[string]report.SensitivityResult
	if decision.DataQualityFlag {
		s.log.Warn("run %s: negligible relative-measure benefit, axiom validation halted", runID)
	} else {
		pipeline.ClassifyNormal(metrics, decision.AxiomThreshold)

		engine := resampling.NewEngine(s.cfg, s.rngPort, s.log)
		sensitivity = engine.Run(ctx, runID, classifier.Compliant(metrics))
	}

	assembler := reportasm.NewAssembler(s.cfg)
	summary := assembler.Assemble(runID, metrics, decision, sensitivity)
	summary.StartedAt = startedAt
	summary.FinishedAt = core.Now()

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, summary); err != nil {
			// Persistence failure never invalidates the computed result.
			s.log.Error("run %s: persist failed: %v", runID, err)
		}
	}
	if s.writer != nil {
		if path, err := s.writer.WriteReport(ctx, summary); err != nil {
			s.log.Error("run %s: report write failed: %v", runID, err)
		} else {
			s.log.Info("run %s: report written to %s", runID, path)
		}
	}

	s.log.Info("run %s: done (compliant=%d rejected=%d)", runID,
		summary.MetricsCompliant, summary.MetricsRejected)
	return summary, nil
}
