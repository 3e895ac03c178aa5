package algorithm

import "github.com/cespare/xxhash/v2"

// HashFunction maps routing keys to 64-bit positions on the token ring.
// Implementations must be deterministic and safe for concurrent use.
type HashFunction interface {
	Hash(key []byte) uint64
	HashString(key string) uint64
}

// XXHash is the default HashFunction: a fast 64-bit non-cryptographic
// hash whose output space matches the ring's token space.
type XXHash struct{}

// NewXXHash creates the default hash function
func NewXXHash() XXHash {
	return XXHash{}
}

// Hash computes the ring position for a binary key
func (XXHash) Hash(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// HashString computes the ring position for a string key
func (XXHash) HashString(key string) uint64 {
	return xxhash.Sum64String(key)
}
