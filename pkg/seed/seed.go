// Package seed normalizes user-supplied seed values into deterministic
// integers for reproducible pseudo-random streams, derives stable per-model
// seeds, and persists frozen seeds between runs.
package seed

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Manager holds one normalized seed for a generation run.
type Manager struct {
	normalized int64
}

// NewManager normalizes a seed input: integers pass through, strings hash
// deterministically (stable across runs and processes), and nil draws once
// from system entropy.
func NewManager(value any) (*Manager, error) {
	n, err := Normalize(value)
	if err != nil {
		return nil, err
	}
	return &Manager{normalized: n}, nil
}

// Normalized returns the canonical integer seed.
func (m *Manager) Normalized() int64 { return m.normalized }

// ModelSeed derives the per-model seed for a qualified model name. The same
// base seed and model name always yield the same derived seed.
func (m *Manager) ModelSeed(qualifiedName string) int64 {
	return DeriveModelSeed(m.normalized, qualifiedName)
}

// Normalize converts a seed input into a canonical integer.
func Normalize(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return entropySeed()
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v & 0x7fffffffffffffff), nil
	case string:
		return StringSeed(v), nil
	default:
		return 0, fmt.Errorf("unsupported seed type %T", value)
	}
}

// StringSeed hashes a string seed into a stable non-negative integer using
// sha256, so the mapping survives process restarts.
func StringSeed(s string) int64 {
	sum := sha256.Sum256([]byte(s))
	return int64(binary.BigEndian.Uint64(sum[:8]) & 0x7fffffffffffffff)
}

// DeriveModelSeed combines a base seed with a stable digest of the model's
// qualified name.
func DeriveModelSeed(base int64, qualifiedName string) int64 {
	return (base ^ StringSeed(qualifiedName)) & 0x7fffffffffffffff
}

func entropySeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("entropy seed: %w", err)
	}
	return int64(binary.BigEndian.Uint64(buf[:]) & 0x7fffffffffffffff), nil
}
