package resampling

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"relpi/domain/core"
	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/internal"
	"relpi/internal/config"
	"relpi/ports"
)

// procedureWeight reflects the relative cost of each sub-procedure so the
// heavy bootstrap/permutation work cannot starve the cheap sweeps.
var procedureWeight = map[string]int64{
	"sample_size":  2,
	"temporal":     1,
	"parameter":    1,
	"robustness":   1,
	"significance": 3,
}

// Engine runs the five sensitivity procedures over every compliant metric.
// Metrics and procedures execute concurrently under a weighted semaphore;
// each procedure gets its own deterministic RNG stream keyed by
// (procedure, metric) so concurrency never perturbs results.
type Engine struct {
	cfg config.PipelineConfig
	rng ports.RNGPort
	log *internal.Logger
	sem *semaphore.Weighted
}

// NewEngine creates a resampling engine sized to the available CPUs
func NewEngine(cfg config.PipelineConfig, rngPort ports.RNGPort, log *internal.Logger) *Engine {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Engine{
		cfg: cfg,
		rng: rngPort,
		log: log,
		sem: semaphore.NewWeighted(int64(runtime.NumCPU()) * 2),
	}
}

// Run executes all five procedures for every metric. No short-circuiting:
// every procedure reports even when earlier ones fail.
func (e *Engine) Run(ctx context.Context, runID core.RunID, metrics []*metric.Metric) map[core.MetricKey]map[string]report.SensitivityResult {
	out := make(map[core.MetricKey]map[string]report.SensitivityResult, len(metrics))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, m := range metrics {
		out[m.Key] = make(map[string]report.SensitivityResult, 5)
		for _, proc := range []string{"sample_size", "temporal", "parameter", "robustness", "significance"} {
			wg.Add(1)
			go func(m *metric.Metric, proc string) {
				defer wg.Done()

				weight := procedureWeight[proc]
				if err := e.sem.Acquire(ctx, weight); err != nil {
					e.log.Warn("metric %s: %s skipped: %v", m.Key, proc, err)
					mu.Lock()
					out[m.Key][proc] = report.SensitivityResult{
						Name:    proc,
						Verdict: report.VerdictSkipped,
						Detail:  err.Error(),
					}
					mu.Unlock()
					return
				}
				defer e.sem.Release(weight)

				res := e.runProcedure(ctx, runID, m, proc)
				mu.Lock()
				out[m.Key][proc] = res
				mu.Unlock()
			}(m, proc)
		}
	}

	wg.Wait()
	return out
}

func (e *Engine) runProcedure(ctx context.Context, runID core.RunID, m *metric.Metric, proc string) report.SensitivityResult {
	switch proc {
	case "temporal":
		return GroupStability(m, e.cfg)
	case "parameter":
		return ParameterSensitivity(m, e.cfg)
	}

	rng, err := e.rng.Stream(ctx, runID, proc, m.Key, e.cfg.RandomSeed)
	if err != nil {
		return report.SensitivityResult{Name: proc, Verdict: report.VerdictSkipped, Detail: err.Error()}
	}

	switch proc {
	case "sample_size":
		return SampleSizeConvergence(m, e.cfg, rng)
	case "robustness":
		return Robustness(m, e.cfg, rng)
	default:
		return StatisticalValidation(m, e.cfg, rng)
	}
}
