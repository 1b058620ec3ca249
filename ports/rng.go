package ports

import (
	"context"
	"math/rand"

	"relpi/domain/core"
)

// RNGPort provides seeded random number generation for deterministic
// resampling. Every bootstrap/permutation procedure receives an explicit
// generator; nothing reads process-wide random state.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic generator for a specific
	// run/procedure/metric triple so identical runs resample identically.
	Stream(ctx context.Context, runID core.RunID, procedure string, key core.MetricKey, baseSeed int64) (*rand.Rand, error)
}
