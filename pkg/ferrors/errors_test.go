package ferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaParseErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &SchemaParseError{Source: "orchestra", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "orchestra")
}

func TestEncodeErrorIncludesTag(t *testing.T) {
	err := &EncodeError{Tag: 55, Reason: "not a valid decimal"}
	assert.Contains(t, err.Error(), "55")
	assert.Contains(t, err.Error(), "not a valid decimal")
}

func TestDecodeErrorOmitsTagWhenZero(t *testing.T) {
	err := &DecodeError{Reason: "truncated header"}
	assert.NotContains(t, err.Error(), "tag 0")
	assert.Contains(t, err.Error(), "truncated header")
}

func TestPathEncodeErrorFormatsIndexWhenSet(t *testing.T) {
	general := &PathEncodeError{Index: -1, Msg: "path must not be empty"}
	assert.Equal(t, "path: path must not be empty", general.Error())

	specific := &PathEncodeError{Index: 1, Value: -3, Msg: "negative path element"}
	assert.Contains(t, specific.Error(), "element 1")
	assert.Contains(t, specific.Error(), "-3")
}

func TestProofErrorMessage(t *testing.T) {
	err := &ProofError{Reason: "leaf index 9 out of range [0,3)"}
	assert.Equal(t, "proof: leaf index 9 out of range [0,3)", err.Error())
}
