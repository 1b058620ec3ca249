package resampling

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/internal/config"
)

// Robustness stresses the SEF two ways: trimming outliers at increasing
// IQR-multiple thresholds and injecting additive Gaussian noise at increasing
// relative magnitudes, recomputing the SEF after each perturbation. The
// sensitivity in both cases is std/|mean| of the resulting SEF sequence.
func Robustness(m *metric.Metric, cfg config.PipelineConfig, rng *rand.Rand) report.SensitivityResult {
	res := report.SensitivityResult{
		Name:      "robustness",
		Tolerance: cfg.RobustnessTolerance,
		Verdict:   report.VerdictFail,
	}

	trimSEFs := outlierSweep(m.Sample, cfg)
	noiseSEFs := noiseSweep(m.Sample, cfg, rng)

	trimCV := coefficientOfVariation(trimSEFs)
	noiseCV := coefficientOfVariation(noiseSEFs)

	combined := append(append([]float64{}, trimSEFs...), noiseSEFs...)
	res.Mean, res.Std = meanStd(combined)
	res.Statistic = math.Max(trimCV, noiseCV)

	if len(trimSEFs) == 0 || len(noiseSEFs) == 0 {
		res.Verdict = report.VerdictSkipped
		res.Detail = "perturbed SEF undefined across the sweep"
		return res
	}

	if !math.IsNaN(res.Statistic) && res.Statistic <= cfg.RobustnessTolerance {
		res.Verdict = report.VerdictPass
	}
	res.Detail = fmt.Sprintf("outlier-trim CV=%.4f (%d thresholds), noise CV=%.4f (%d levels)",
		trimCV, len(trimSEFs), noiseCV, len(noiseSEFs))
	return res
}

// outlierSweep recomputes the SEF after trimming pairs whose absolute or
// relative value falls outside the quartile fences [q1−k·IQR, q3+k·IQR] for
// each configured k.
func outlierSweep(s metric.PairedSample, cfg config.PipelineConfig) []float64 {
	q1Abs, _ := stats.Percentile(s.Absolute, 25)
	q3Abs, _ := stats.Percentile(s.Absolute, 75)
	q1Rel, _ := stats.Percentile(s.Relative, 25)
	q3Rel, _ := stats.Percentile(s.Relative, 75)
	iqrAbs := q3Abs - q1Abs
	iqrRel := q3Rel - q1Rel

	var sefs []float64
	for _, k := range cfg.OutlierIQRMultiples {
		var keep []int
		for i := range s.Absolute {
			if s.Absolute[i] < q1Abs-k*iqrAbs || s.Absolute[i] > q3Abs+k*iqrAbs {
				continue
			}
			if s.Relative[i] < q1Rel-k*iqrRel || s.Relative[i] > q3Rel+k*iqrRel {
				continue
			}
			keep = append(keep, i)
		}
		if len(keep) < cfg.MinSampleSize {
			continue
		}
		if r, ok := sampleSEF(s.Subset(keep), cfg.SEFNumerator); ok && !r.Critical {
			sefs = append(sefs, r.Value)
		}
	}
	return sefs
}

// noiseSweep recomputes the SEF after adding zero-mean Gaussian noise scaled
// to each configured fraction of the per-series standard deviation.
func noiseSweep(s metric.PairedSample, cfg config.PipelineConfig, rng *rand.Rand) []float64 {
	stdAbs, _ := stats.StandardDeviationSample(s.Absolute)
	stdRel, _ := stats.StandardDeviationSample(s.Relative)

	var sefs []float64
	for _, level := range cfg.NoiseLevels {
		noisy := metric.PairedSample{
			Absolute: make([]float64, s.Len()),
			Relative: make([]float64, s.Len()),
			Outcome:  s.Outcome,
			Groups:   s.Groups,
		}
		for i := 0; i < s.Len(); i++ {
			noisy.Absolute[i] = s.Absolute[i] + rng.NormFloat64()*level*stdAbs
			noisy.Relative[i] = s.Relative[i] + rng.NormFloat64()*level*stdRel
		}
		if r, ok := sampleSEF(noisy, cfg.SEFNumerator); ok && !r.Critical {
			sefs = append(sefs, r.Value)
		}
	}
	return sefs
}
