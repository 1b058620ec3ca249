// Package rng implements the deterministic seeded-stream RNG adapter.
// Streams are keyed by (procedure, metric, seed) so re-running a pipeline
// over the same data with the same base seed reproduces every resample
// exactly, regardless of the order procedures happen to execute in. The run
// ID is deliberately not part of the key.
package rng

import (
	"context"
	"hash/fnv"
	"math/rand"

	"relpi/domain/core"
	"relpi/ports"
)

// Adapter implements ports.RNGPort
type Adapter struct{}

// NewAdapter creates a deterministic RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a generator seeded from the operation name and seed
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(mixSeed(seed, name))), nil
}

// Stream creates a generator for a procedure/metric pair
func (a *Adapter) Stream(ctx context.Context, runID core.RunID, procedure string, key core.MetricKey, baseSeed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(mixSeed(baseSeed, procedure+"/"+key.String()))), nil
}

// mixSeed folds a label into the base seed via FNV-1a so distinct streams
// never share a source.
func mixSeed(seed int64, label string) int64 {
	h := fnv.New64a()
	h.Write([]byte(label))
	return seed ^ int64(h.Sum64())
}

var _ ports.RNGPort = (*Adapter)(nil)
