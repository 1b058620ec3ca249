package metric

import (
	"math"
	"testing"

	"relpi/domain/core"
)

func TestNewPairedSample_ValidityMask(t *testing.T) {
	abs := []float64{1, math.NaN(), 3, math.Inf(1), 5}
	rel := []float64{0.1, 0.2, math.NaN(), 0.4, 0.5}
	out := []int{1, 0, 1, 0, 1}

	s := NewPairedSample(abs, rel, out, nil)
	if s.Len() != 2 {
		t.Fatalf("expected 2 valid pairs, got %d", s.Len())
	}
	if s.DroppedPairs != 3 {
		t.Errorf("expected 3 dropped pairs, got %d", s.DroppedPairs)
	}
	if s.Absolute[0] != 1 || s.Absolute[1] != 5 {
		t.Errorf("wrong surviving pairs: %v", s.Absolute)
	}
	if s.Outcome[0] != 1 || s.Outcome[1] != 1 {
		t.Errorf("outcomes not aligned after masking: %v", s.Outcome)
	}
}

func TestNewPairedSampleFromUnits(t *testing.T) {
	a := []float64{3, 5, 7}
	b := []float64{1, 2, 3}
	s := NewPairedSampleFromUnits(a, b, []int{0, 1, 0}, nil)

	want := []float64{2, 3, 4}
	for i := range want {
		if s.Relative[i] != want[i] {
			t.Errorf("relative[%d]=%v, want %v", i, s.Relative[i], want[i])
		}
	}

	// UnitB must invert the construction exactly.
	back := s.UnitB()
	for i := range b {
		if back[i] != b[i] {
			t.Errorf("unitB[%d]=%v, want %v", i, back[i], b[i])
		}
	}
}

func TestSubset_DoesNotMutateReceiver(t *testing.T) {
	s := NewPairedSample(
		[]float64{1, 2, 3, 4},
		[]float64{10, 20, 30, 40},
		[]int{0, 1, 0, 1},
		[]core.GroupKey{"a", "a", "b", "b"},
	)
	sub := s.Subset([]int{3, 0})

	if sub.Len() != 2 || sub.Absolute[0] != 4 || sub.Absolute[1] != 1 {
		t.Errorf("wrong subset: %v", sub.Absolute)
	}
	if sub.Groups[0] != "b" || sub.Groups[1] != "a" {
		t.Errorf("groups not carried: %v", sub.Groups)
	}
	if s.Len() != 4 {
		t.Error("receiver mutated by Subset")
	}
}

func TestGroupIndices(t *testing.T) {
	s := NewPairedSample(
		[]float64{1, 2, 3},
		[]float64{1, 2, 3},
		[]int{0, 1, 0},
		[]core.GroupKey{"x", "y", "x"},
	)
	byGroup := s.GroupIndices()
	if len(byGroup) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(byGroup))
	}
	if len(byGroup["x"]) != 2 || byGroup["x"][1] != 2 {
		t.Errorf("group x indices wrong: %v", byGroup["x"])
	}

	if NewPairedSample([]float64{1}, []float64{1}, []int{0}, nil).GroupIndices() != nil {
		t.Error("no groups must yield nil, not an empty map")
	}
}

func TestMetric_TagNeverRegresses(t *testing.T) {
	m := NewMetric("test", PairedSample{})

	if err := m.Advance(TagNormal); err != nil {
		t.Fatalf("raw→normal: %v", err)
	}
	if err := m.Advance(TagRaw); err == nil {
		t.Error("normal→raw must be refused")
	}
	if err := m.Advance(TagAxiomCompliant); err != nil {
		t.Fatalf("normal→axiom_compliant: %v", err)
	}
	if err := m.Advance(TagNormal); err == nil {
		t.Error("axiom_compliant→normal must be refused")
	}
}

func TestMetric_RejectionIsTerminal(t *testing.T) {
	m := NewMetric("test", PairedSample{})
	m.Reject(RejectNonNormal, "both regimes failed")

	if !m.Rejected() || m.RejectionReason != RejectNonNormal {
		t.Fatalf("rejection not recorded: %+v", m)
	}
	if err := m.Advance(TagNormal); err == nil {
		t.Error("rejected metric must not advance")
	}

	// A second rejection must not overwrite the original reason.
	m.Reject(RejectZeroVariance, "later")
	if m.RejectionReason != RejectNonNormal {
		t.Errorf("rejection reason overwritten: %s", m.RejectionReason)
	}
}
