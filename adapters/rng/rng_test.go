package rng

import (
	"context"
	"testing"
)

func TestStream_DeterministicPerKey(t *testing.T) {
	a := NewAdapter()
	ctx := context.Background()

	r1, err := a.Stream(ctx, "run-1", "significance", "pace", 42)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := a.Stream(ctx, "run-2", "significance", "pace", 42)
	if err != nil {
		t.Fatal(err)
	}

	// The run ID is not part of the stream key: identical seeds reproduce
	// identical draws across runs.
	for i := 0; i < 100; i++ {
		if r1.Int63() != r2.Int63() {
			t.Fatal("same procedure/metric/seed must yield the same stream")
		}
	}
}

func TestStream_DistinctAcrossProceduresAndSeeds(t *testing.T) {
	a := NewAdapter()
	ctx := context.Background()

	base, _ := a.Stream(ctx, "r", "significance", "pace", 42)
	otherProc, _ := a.Stream(ctx, "r", "robustness", "pace", 42)
	otherKey, _ := a.Stream(ctx, "r", "significance", "kicks", 42)
	otherSeed, _ := a.Stream(ctx, "r", "significance", "pace", 43)

	baseDraw := base.Int63()
	if otherProc.Int63() == baseDraw && otherKey.Int63() == baseDraw && otherSeed.Int63() == baseDraw {
		t.Fatal("streams are not independent across procedure/metric/seed")
	}
}

func TestSeededStream(t *testing.T) {
	a := NewAdapter()
	ctx := context.Background()

	r1, _ := a.SeededStream(ctx, "bootstrap", 7)
	r2, _ := a.SeededStream(ctx, "bootstrap", 7)
	if r1.Int63() != r2.Int63() {
		t.Error("same name and seed must reproduce")
	}

	r3, _ := a.SeededStream(ctx, "permutation", 7)
	r4, _ := a.SeededStream(ctx, "bootstrap", 7)
	if r3.Int63() == r4.Int63() {
		t.Error("distinct names produced identical streams")
	}
}
