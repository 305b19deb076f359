package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeGuildHash fingerprints a guild independent of member order.
func ComputeGuildHash(species []string) Hash {
	sorted := append([]string(nil), species...)
	sort.Strings(sorted)
	return NewHash([]byte(strings.Join(sorted, "\x1f")))
}

// ComputeProfileSetHash fingerprints calibration settings so two runs can be compared.
func ComputeProfileSetHash(seed int64, samples int, formulas map[string]string) Hash {
	keys := make([]string, 0, len(formulas))
	for k := range formulas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(fmt.Sprintf("%d:%d", seed, samples))
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(formulas[key])
	}
	return NewHash([]byte(data.String()))
}
