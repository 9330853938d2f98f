// Package merkle enumerates every scalar field of a descriptor into leaves,
// builds the odd-node-promotion Merkle tree over them, and generates and
// verifies per-leaf inclusion proofs. It does not depend on the SBE codec:
// the descriptor-to-leaves path uses only packages fixmsg, cbor, and keccak
// and must be deterministic on its own.
package merkle

import (
	"bytes"
	"sort"

	"github.com/NethermindEth/fix-descriptor/pkg/cbor"
	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
	"github.com/NethermindEth/fix-descriptor/pkg/keccak"
)

// equalsSeparator is the ASCII '=' byte the leaf formula places between a
// leaf's canonical path and its value.
const equalsSeparator = byte(0x3D)

// Leaf is one scalar occurrence of a descriptor: its tag/group-index path,
// that path's canonical CBOR encoding, the UTF-8 value bytes, and the
// resulting leaf hash.
type Leaf struct {
	Path       []int
	PathCBOR   []byte
	ValueBytes []byte
	LeafHash   [keccak.Size]byte
}

// EnumerateLeaves walks desc in declaration order and returns every scalar
// leaf, sorted by pathCBOR ascending byte order — the canonical leaf index
// the Merkle builder consumes. Session tags are stripped once at the top
// level via Descriptor.StripSessionTags (they never appear inside repeating
// groups, so one non-recursive strip before the walk is equivalent to
// filtering at every level); empty-string values never produce a leaf.
func EnumerateLeaves(desc *fixmsg.Descriptor) ([]Leaf, error) {
	var leaves []Leaf
	if err := walk(desc.StripSessionTags(), nil, &leaves); err != nil {
		return nil, err
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i].PathCBOR, leaves[j].PathCBOR) < 0
	})
	return leaves, nil
}

func walk(desc *fixmsg.Descriptor, prefix []int, out *[]Leaf) error {
	for _, tag := range desc.Tags() {
		node, _ := desc.Get(tag)
		switch node.Kind {
		case fixmsg.KindScalar:
			if len(node.Value) == 0 {
				continue
			}
			path := appendPath(prefix, tag)
			pathCBOR, err := cbor.EncodePath(path)
			if err != nil {
				return err
			}
			leafHash := keccak.Hash256(pathCBOR, []byte{equalsSeparator}, node.Value)
			*out = append(*out, Leaf{
				Path:       path,
				PathCBOR:   pathCBOR,
				ValueBytes: node.Value,
				LeafHash:   leafHash,
			})
		case fixmsg.KindGroup:
			for k, child := range node.Group {
				childPrefix := appendPath(prefix, tag, k)
				if err := walk(child, childPrefix, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func appendPath(prefix []int, more ...int) []int {
	out := make([]int, 0, len(prefix)+len(more))
	out = append(out, prefix...)
	out = append(out, more...)
	return out
}
