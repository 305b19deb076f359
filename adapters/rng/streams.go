// Package rng derives reproducible random streams from a base seed.
package rng

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// Streams implements ports.RNGPort.
type Streams struct{}

// NewStreams returns the default stream factory.
func NewStreams() *Streams {
	return &Streams{}
}

// Stream hashes scope, stratum and key together with the base seed.
func (s *Streams) Stream(ctx context.Context, scope, stratum, key string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write([]byte(stratum))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return rand.New(rand.NewSource(baseSeed ^ int64(h.Sum64()))), nil
}
