// Package keccak provides the single hash primitive the rest of this module
// is built on: legacy Keccak-256, the pre-FIPS-202 padding variant used by
// Ethereum and consumed bit-for-bit by the on-chain verifier contract. It is
// deliberately not SHA3-256 (the standardized variant has different
// padding) — see golang.org/x/crypto/sha3's NewLegacyKeccak256.
package keccak

import (
	"golang.org/x/crypto/sha3"
)

// Size is the digest length in bytes.
const Size = 32

// Hash256 returns the legacy Keccak-256 digest of the concatenation of the
// given byte slices, without intermediate copies beyond what the sponge
// construction requires.
func Hash256(parts ...[]byte) [Size]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash.Hash.Write never returns an error
	}
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
