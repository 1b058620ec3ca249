package metric

import (
	"math"

	"relpi/domain/core"
)

// PairedSample holds the validity-masked observations for one metric: the
// absolute values of unit A, the relative values (A−B or precomputed), the
// aligned binary outcomes, and the group label per observation. All slices
// share the same index set; invalid pairs are removed once at construction so
// downstream stages never re-filter.
type PairedSample struct {
	Absolute []float64
	Relative []float64
	Outcome  []int
	Groups   []core.GroupKey

	// DroppedPairs counts observations removed by the validity mask.
	DroppedPairs int
}

// NewPairedSample applies the validity mask: a pair survives only when both
// numeric values are finite and an outcome is present. Groups may be nil.
func NewPairedSample(absolute, relative []float64, outcome []int, groups []core.GroupKey) PairedSample {
	n := len(absolute)
	if len(relative) < n {
		n = len(relative)
	}
	if len(outcome) < n {
		n = len(outcome)
	}

	s := PairedSample{
		Absolute: make([]float64, 0, n),
		Relative: make([]float64, 0, n),
		Outcome:  make([]int, 0, n),
	}
	if groups != nil {
		s.Groups = make([]core.GroupKey, 0, n)
	}

	for i := 0; i < n; i++ {
		if !isFinite(absolute[i]) || !isFinite(relative[i]) {
			s.DroppedPairs++
			continue
		}
		s.Absolute = append(s.Absolute, absolute[i])
		s.Relative = append(s.Relative, relative[i])
		s.Outcome = append(s.Outcome, outcome[i])
		if groups != nil && i < len(groups) {
			s.Groups = append(s.Groups, groups[i])
		}
	}

	return s
}

// NewPairedSampleFromUnits builds the relative series as A−B before masking.
func NewPairedSampleFromUnits(unitA, unitB []float64, outcome []int, groups []core.GroupKey) PairedSample {
	n := len(unitA)
	if len(unitB) < n {
		n = len(unitB)
	}
	relative := make([]float64, n)
	for i := 0; i < n; i++ {
		relative[i] = unitA[i] - unitB[i]
	}
	return NewPairedSample(unitA[:n], relative, outcome, groups)
}

// Len returns the number of valid pairs
func (s PairedSample) Len() int {
	return len(s.Absolute)
}

// Subset returns a new sample containing only the given indices.
// Used by resampling procedures; the receiver is never mutated.
func (s PairedSample) Subset(indices []int) PairedSample {
	out := PairedSample{
		Absolute: make([]float64, len(indices)),
		Relative: make([]float64, len(indices)),
		Outcome:  make([]int, len(indices)),
	}
	if s.Groups != nil {
		out.Groups = make([]core.GroupKey, len(indices))
	}
	for i, idx := range indices {
		out.Absolute[i] = s.Absolute[idx]
		out.Relative[i] = s.Relative[idx]
		out.Outcome[i] = s.Outcome[idx]
		if s.Groups != nil {
			out.Groups[i] = s.Groups[idx]
		}
	}
	return out
}

// UnitB reconstructs unit B's absolute series from the identity
// relative = A − B. When the relative column was precomputed upstream this
// is the unit-B series implied by the measurement model.
func (s PairedSample) UnitB() []float64 {
	out := make([]float64, len(s.Absolute))
	for i := range s.Absolute {
		out[i] = s.Absolute[i] - s.Relative[i]
	}
	return out
}

// GroupIndices returns the observation indices per group label.
func (s PairedSample) GroupIndices() map[core.GroupKey][]int {
	if s.Groups == nil {
		return nil
	}
	byGroup := make(map[core.GroupKey][]int)
	for i, g := range s.Groups {
		byGroup[g] = append(byGroup[g], i)
	}
	return byGroup
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
