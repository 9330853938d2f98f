package keccak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash256Deterministic(t *testing.T) {
	a := Hash256([]byte("hello"))
	b := Hash256([]byte("hello"))
	assert.Equal(t, a, b)
}

func TestHash256ConcatenatesParts(t *testing.T) {
	combined := Hash256([]byte("hello"))
	split := Hash256([]byte("hel"), []byte("lo"))
	assert.Equal(t, combined, split)
}

func TestHash256DiffersOnInputChange(t *testing.T) {
	a := Hash256([]byte("hello"))
	b := Hash256([]byte("hellp"))
	assert.NotEqual(t, a, b)
}

func TestHash256KnownVector(t *testing.T) {
	// Legacy Keccak-256 of the empty input is a well-known constant,
	// distinct from SHA3-256's empty-input digest — this is the test that
	// would catch an accidental swap to the standardized variant.
	got := Hash256()
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	assert.Equal(t, want, hexString(got[:]))
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xF]
	}
	return string(out)
}
