// Package cbor implements the canonical CBOR subset used to encode Merkle
// leaf paths: definite-length arrays of non-negative integers, each in its
// smallest unsigned-integer major-type form. It implements only the subset
// RFC 8949 §4.2 calls "deterministically encoded CBOR" that the leaf-path
// format needs; it is not a general CBOR library.
package cbor

import (
	"encoding/binary"
	"fmt"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
)

const maxArrayLen = 0xFFFF

// EncodePath canonically encodes a Merkle leaf path (a sequence of
// non-negative integers) as a definite-length CBOR array of unsigned
// integers. It rejects negative values and is a pure function of its input:
// the same path always yields identical bytes.
func EncodePath(path []int) ([]byte, error) {
	if len(path) > maxArrayLen {
		return nil, &ferrors.PathEncodeError{Index: -1, Msg: fmt.Sprintf("path length %d exceeds %d", len(path), maxArrayLen)}
	}
	out := make([]byte, 0, 2+len(path)*5)
	out = appendArrayHeader(out, len(path))
	for i, v := range path {
		if v < 0 {
			return nil, &ferrors.PathEncodeError{Index: i, Value: v, Msg: "negative integer not permitted in path"}
		}
		out = appendUint(out, uint64(v))
	}
	return out, nil
}

func appendArrayHeader(out []byte, n int) []byte {
	switch {
	case n < 24:
		return append(out, 0x80|byte(n))
	case n < 256:
		return append(out, 0x98, byte(n))
	default:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(n))
		return append(out, 0x99, buf[0], buf[1])
	}
}

func appendUint(out []byte, n uint64) []byte {
	switch {
	case n < 24:
		return append(out, byte(n))
	case n < 256:
		return append(out, 0x18, byte(n))
	case n < 65536:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(n))
		return append(out, 0x19, buf[0], buf[1])
	default:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(n))
		return append(out, 0x1A, buf[0], buf[1], buf[2], buf[3])
	}
}

// DecodePath parses the canonical encoding EncodePath produces, returning
// the decoded integers and the number of bytes consumed. It exists so
// round-trip properties can be asserted in tests; the Merkle pipeline itself
// only ever needs the forward direction.
func DecodePath(data []byte) ([]int, int, error) {
	if len(data) == 0 {
		return nil, 0, &ferrors.PathEncodeError{Index: -1, Msg: "empty input"}
	}
	n, hdrLen, err := readArrayHeader(data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]int, 0, n)
	pos := hdrLen
	for i := 0; i < n; i++ {
		v, l, err := readUint(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, int(v))
		pos += l
	}
	return out, pos, nil
}

func readArrayHeader(data []byte) (int, int, error) {
	b := data[0]
	if b>>5 != 4 { // major type 4 = array
		return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "not an array header"}
	}
	minor := b & 0x1F
	switch {
	case minor < 24:
		return int(minor), 1, nil
	case minor == 24:
		if len(data) < 2 {
			return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "truncated array length"}
		}
		return int(data[1]), 2, nil
	case minor == 25:
		if len(data) < 3 {
			return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "truncated array length"}
		}
		return int(binary.BigEndian.Uint16(data[1:3])), 3, nil
	default:
		return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "unsupported array length form"}
	}
}

func readUint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "truncated integer"}
	}
	b := data[0]
	if b>>5 != 0 { // major type 0 = unsigned integer
		return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "not an unsigned integer"}
	}
	minor := b & 0x1F
	switch {
	case minor < 24:
		return uint64(minor), 1, nil
	case minor == 24:
		if len(data) < 2 {
			return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "truncated uint8"}
		}
		return uint64(data[1]), 2, nil
	case minor == 25:
		if len(data) < 3 {
			return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "truncated uint16"}
		}
		return uint64(binary.BigEndian.Uint16(data[1:3])), 3, nil
	case minor == 26:
		if len(data) < 5 {
			return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "truncated uint32"}
		}
		return uint64(binary.BigEndian.Uint32(data[1:5])), 5, nil
	default:
		return 0, 0, &ferrors.PathEncodeError{Index: -1, Msg: "unsupported integer width"}
	}
}
