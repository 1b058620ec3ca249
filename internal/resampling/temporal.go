package resampling

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"relpi/domain/core"
	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/internal/config"
)

// GroupStability partitions the sample by its grouping key (season), computes
// the SEF per group, and reports the cross-group coefficient of variation and
// linear trend slope. Groups below the minimum sample size are skipped, not
// treated as failures.
func GroupStability(m *metric.Metric, cfg config.PipelineConfig) report.SensitivityResult {
	res := report.SensitivityResult{
		Name:      "temporal",
		Tolerance: cfg.StabilityTolerance,
	}

	byGroup := m.Sample.GroupIndices()
	if byGroup == nil {
		res.Verdict = report.VerdictSkipped
		res.Detail = "no grouping key in dataset"
		return res
	}

	// Deterministic group order for the trend fit
	groups := make([]core.GroupKey, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	var groupSEFs []float64
	var skipped int
	for _, g := range groups {
		idx := byGroup[g]
		if len(idx) < cfg.MinSampleSize {
			skipped++
			continue
		}
		if r, ok := sampleSEF(m.Sample.Subset(idx), cfg.SEFNumerator); ok && !r.Critical {
			groupSEFs = append(groupSEFs, r.Value)
		}
	}

	if len(groupSEFs) < 2 {
		res.Verdict = report.VerdictSkipped
		res.Detail = fmt.Sprintf("fewer than 2 usable groups (%d skipped for size)", skipped)
		return res
	}

	cv := coefficientOfVariation(groupSEFs)
	mean, std := meanStd(groupSEFs)
	res.Mean, res.Std, res.Statistic = mean, std, cv

	// Linear trend of SEF across group order
	xs := make([]float64, len(groupSEFs))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, groupSEFs, nil, false)

	res.Verdict = report.VerdictFail
	if !math.IsNaN(cv) && cv <= cfg.StabilityTolerance {
		res.Verdict = report.VerdictPass
	}
	res.Detail = fmt.Sprintf("%d groups (%d skipped), cross-group CV=%.4f, trend slope=%.4f",
		len(groupSEFs), skipped, cv, slope)
	return res
}
