package hmap

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// Hasher produces the 64-bit hash a Map uses to place a key.
type Hasher[K comparable] interface {
	Hash(K) uint64
}

// SeedHasher hashes any comparable key through the runtime's maphash with a
// per-instance random seed, which keeps probe sequences unpredictable across
// map instances. It is the default hasher.
type SeedHasher[K comparable] struct {
	seed maphash.Seed
}

// NewSeedHasher returns a SeedHasher with a fresh random seed.
func NewSeedHasher[K comparable]() SeedHasher[K] {
	return SeedHasher[K]{seed: maphash.MakeSeed()}
}

// Hash implements Hasher.
func (h SeedHasher[K]) Hash(k K) uint64 {
	return maphash.Comparable(h.seed, k)
}

// XXStringHasher hashes string keys with xxHash. Unlike SeedHasher it is
// deterministic across processes, which makes probe order reproducible in
// tests and trace comparisons. Do not use it where hash-flooding untrusted
// keys is a concern.
type XXStringHasher struct{}

// Hash implements Hasher.
func (XXStringHasher) Hash(s string) uint64 {
	return xxhash.Sum64String(s)
}
