package resampling

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"

	"relpi/domain/core"
	"relpi/domain/metric"
	"relpi/domain/report"
	"relpi/internal/config"
)

// StatisticalValidation runs the full-depth resampling battery for one
// metric: a percentile-bootstrap confidence interval with a one-sided
// p-value for "SEF > 1", a permutation test destroying the paired structure,
// and leave-one-group-out refits checking that no single group drives the
// result. The verdict passes only when all three agree.
func StatisticalValidation(m *metric.Metric, cfg config.PipelineConfig, rng *rand.Rand) report.SensitivityResult {
	res := report.SensitivityResult{
		Name:      "significance",
		Tolerance: cfg.SignificanceAlpha,
		Verdict:   report.VerdictFail,
	}

	observed, ok := sampleSEF(m.Sample, cfg.SEFNumerator)
	if !ok || observed.Critical {
		res.Verdict = report.VerdictSkipped
		res.Detail = "observed SEF undefined or critical"
		return res
	}

	// Percentile bootstrap of the SEF
	n := m.Sample.Len()
	boot := make([]float64, 0, cfg.BootstrapIterations)
	for b := 0; b < cfg.BootstrapIterations; b++ {
		sub := m.Sample.Subset(bootstrapIndices(rng, n, n))
		if r, okB := sampleSEF(sub, cfg.SEFNumerator); okB && !r.Critical {
			boot = append(boot, r.Value)
		}
	}
	if len(boot) < cfg.BootstrapIterations/2 {
		res.Verdict = report.VerdictSkipped
		res.Detail = "bootstrap SEF undefined in most resamples"
		return res
	}

	res.Mean, res.Std = meanStd(boot)
	res.CILower, _ = stats.Percentile(boot, 2.5)
	res.CIUpper, _ = stats.Percentile(boot, 97.5)

	// One-sided bootstrap p-value for SEF > 1
	atOrBelowOne := 0
	for _, v := range boot {
		if v <= 1 {
			atOrBelowOne++
		}
	}
	bootP := float64(atOrBelowOne) / float64(len(boot))

	permP := permutationPValue(m.Sample, observed.Value, cfg, rng)
	logoVar, logoGroups := leaveOneGroupOut(m.Sample, observed.Value, cfg)

	res.PValue = math.Max(bootP, permP)
	res.Statistic = observed.Value

	pass := bootP < cfg.SignificanceAlpha && permP < cfg.SignificanceAlpha
	logoDetail := "no group labels"
	if logoGroups >= 2 {
		// Stability index: variance of per-exclusion SEF around the
		// full-sample value, relative to that value.
		stabilityIdx := logoVar / (observed.Value * observed.Value)
		pass = pass && stabilityIdx <= cfg.StabilityTolerance
		logoDetail = fmt.Sprintf("LOGO stability=%.4f over %d groups", stabilityIdx, logoGroups)
	}
	if pass {
		res.Verdict = report.VerdictPass
	}

	res.Detail = fmt.Sprintf("bootstrap p=%.4f, permutation p=%.4f, %s", bootP, permP, logoDetail)
	return res
}

// permutationPValue shuffles the pairing between units to build a null with
// no shared structure: unit B's series is permuted, the relative series
// rebuilt, and the SEF recomputed. Returns the fraction of null SEFs at or
// above the observed value.
func permutationPValue(s metric.PairedSample, observed float64, cfg config.PipelineConfig, rng *rand.Rand) float64 {
	unitB := s.UnitB()
	n := s.Len()

	atLeast := 0
	valid := 0
	perm := make([]float64, n)
	for p := 0; p < cfg.PermutationCount; p++ {
		copy(perm, unitB)
		rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

		shuffled := metric.PairedSample{
			Absolute: s.Absolute,
			Relative: make([]float64, n),
			Outcome:  s.Outcome,
		}
		for i := 0; i < n; i++ {
			shuffled.Relative[i] = s.Absolute[i] - perm[i]
		}

		if r, ok := sampleSEF(shuffled, cfg.SEFNumerator); ok && !r.Critical {
			valid++
			if r.Value >= observed {
				atLeast++
			}
		}
	}
	if valid == 0 {
		return 1
	}
	// Add-one smoothing keeps the p-value away from an impossible zero.
	return (float64(atLeast) + 1) / (float64(valid) + 1)
}

// leaveOneGroupOut refits the SEF with each group excluded and returns the
// variance of the refits around the full-sample SEF, plus the group count.
func leaveOneGroupOut(s metric.PairedSample, observed float64, cfg config.PipelineConfig) (float64, int) {
	byGroup := s.GroupIndices()
	if byGroup == nil || len(byGroup) < 2 {
		return math.NaN(), 0
	}

	// Deterministic exclusion order keeps the accumulated variance bit-exact
	// across runs.
	groups := make([]core.GroupKey, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	var sumSq float64
	var count int
	for _, g := range groups {
		var keep []int
		for i, gi := range s.Groups {
			if gi != g {
				keep = append(keep, i)
			}
		}
		if len(keep) < cfg.MinSampleSize {
			continue
		}
		if r, ok := sampleSEF(s.Subset(keep), cfg.SEFNumerator); ok && !r.Critical {
			d := r.Value - observed
			sumSq += d * d
			count++
		}
	}
	if count == 0 {
		return math.NaN(), 0
	}
	return sumSq / float64(count), count
}
