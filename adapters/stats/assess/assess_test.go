package assess

import (
	"math"
	"math/rand"
	"testing"
)

func normalSample(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func TestNormality_GaussianSamplePasses(t *testing.T) {
	sample := normalSample(200, 7)
	res := Normality(sample, 0.05)
	if res.Method != "shapiro_francia" {
		t.Fatalf("expected formal test on n=200, got %s", res.Method)
	}
	if !res.IsNormal {
		t.Errorf("gaussian sample rejected: score=%v statistic=%v", res.Score, res.Statistic)
	}
	if res.Statistic < 0.95 {
		t.Errorf("W' statistic suspiciously low for gaussian data: %v", res.Statistic)
	}
}

func TestNormality_HeavySkewFails(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	sample := make([]float64, 200)
	for i := range sample {
		// Exponentiated normals are strongly right-skewed.
		sample[i] = math.Exp(2 * rng.NormFloat64())
	}
	res := Normality(sample, 0.05)
	if res.IsNormal {
		t.Errorf("lognormal sample accepted: score=%v statistic=%v", res.Score, res.Statistic)
	}
}

func TestNormality_FallbackOnTinySample(t *testing.T) {
	res := Normality([]float64{1.0, 2.0, 3.0, 2.5}, 0.05)
	if res.Method != "moment_heuristic" {
		t.Errorf("n=4 must fall back to the moment heuristic, got %s", res.Method)
	}
}

func TestNormality_ConstantSampleFallsBack(t *testing.T) {
	sample := make([]float64, 50)
	for i := range sample {
		sample[i] = 3.14
	}
	res := Normality(sample, 0.05)
	if res.IsNormal {
		t.Error("constant sample must not be reported as normal")
	}
}

func TestPearson(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10}
	if got := Pearson(a, b); math.Abs(got-1) > 1e-12 {
		t.Errorf("perfect linear: got %v, want 1", got)
	}

	inv := []float64{10, 8, 6, 4, 2}
	if got := Pearson(a, inv); math.Abs(got+1) > 1e-12 {
		t.Errorf("perfect inverse: got %v, want -1", got)
	}

	constant := []float64{5, 5, 5, 5, 5}
	if got := Pearson(a, constant); got != 0 {
		t.Errorf("zero-variance input must yield 0, got %v", got)
	}
	if got := Pearson(a, a[:3]); got != 0 {
		t.Errorf("length mismatch must yield 0, got %v", got)
	}
}

func TestSpearman_MonotoneNonlinear(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = math.Exp(v) // monotone but far from linear
	}
	if got := Spearman(a, b); math.Abs(got-1) > 1e-12 {
		t.Errorf("monotone transform: got %v, want 1", got)
	}
}

func TestRanks_TiesAveraged(t *testing.T) {
	ranks := Ranks([]float64{10, 20, 20, 30})
	want := []float64{1, 2.5, 2.5, 4}
	for i := range want {
		if ranks[i] != want[i] {
			t.Errorf("rank[%d]=%v, want %v", i, ranks[i], want[i])
		}
	}
}

func TestVarianceRatio(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10} // twice the spread, 4x the variance
	kappa, ok := VarianceRatio(a, b)
	if !ok {
		t.Fatal("expected defined variance ratio")
	}
	if math.Abs(kappa-4) > 1e-12 {
		t.Errorf("kappa=%v, want 4", kappa)
	}

	constant := []float64{1, 1, 1, 1, 1}
	if _, ok := VarianceRatio(constant, b); ok {
		t.Error("zero var(a) must be undefined, not clamped")
	}
}

func TestRSquared(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{3, 5, 7, 9, 11}
	if got := RSquared(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("exact line: R²=%v, want 1", got)
	}

	noise := normalSample(200, 3)
	signal := normalSample(200, 4)
	if got := RSquared(signal, noise); got > 0.2 {
		t.Errorf("independent samples: R²=%v, want near 0", got)
	}
}

func TestAUC(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.8, 0.9, 1.0}
	outcomes := []int{0, 0, 0, 1, 1, 1}
	auc, ok := AUC(values, outcomes)
	if !ok || auc != 1 {
		t.Errorf("perfect separation: auc=%v ok=%v, want 1", auc, ok)
	}

	flipped, _ := AUC(values, []int{1, 1, 1, 0, 0, 0})
	if flipped != 0 {
		t.Errorf("perfect inverse separation: auc=%v, want 0", flipped)
	}
	abs, _ := AbsAUC(values, []int{1, 1, 1, 0, 0, 0})
	if abs != 1 {
		t.Errorf("folded AUC must ignore direction: got %v, want 1", abs)
	}

	if _, ok := AUC(values, []int{1, 1, 1, 1, 1, 1}); ok {
		t.Error("single-class outcome must be undefined")
	}
}
