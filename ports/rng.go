package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic RNG stream for one calibration sample.
	// The same scope/stratum/key/baseSeed always yields the same sequence, independent of
	// which worker draws it.
	Stream(ctx context.Context, scope, stratum, key string, baseSeed int64) (*rand.Rand, error)
}
