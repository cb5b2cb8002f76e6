// Package value defines the engine's runtime data: identifiers, dotted
// addresses, the tagged Value union and the Converter policy that governs
// type checks and numeric conversion.
package value

import (
	"github.com/cespare/xxhash/v2"
)

// Identifier is an immutable name.
//
// The 32-bit hash is computed once at construction and used as a fast
// prefilter; equality always falls back to comparing the text, so two
// names whose hashes collide are still distinct.
type Identifier struct {
	name string
	hash uint32
}

// NewIdentifier creates an Identifier for name.
func NewIdentifier(name string) Identifier {
	return Identifier{name: name, hash: hash32(name)}
}

// Name returns the identifier text.
func (id Identifier) Name() string {
	return id.name
}

// Hash returns the non-cryptographic 32-bit hash of the name.
func (id Identifier) Hash() uint32 {
	return id.hash
}

// IsZero reports whether the identifier has no text.
func (id Identifier) IsZero() bool {
	return id.name == ""
}

// Equal reports whether both identifiers name the same thing.
func (id Identifier) Equal(other Identifier) bool {
	return id.hash == other.hash && id.name == other.name
}

// String returns the identifier text.
func (id Identifier) String() string {
	return id.name
}

// hash32 folds the 64-bit xxhash digest into 32 bits.
func hash32(s string) uint32 {
	h := xxhash.Sum64String(s)
	return uint32(h) ^ uint32(h>>32)
}

// combine mixes a running hash with the next segment hash.
func combine(acc, next uint32) uint32 {
	return acc*31 + next
}
