package merkle

import (
	"fmt"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
	"github.com/NethermindEth/fix-descriptor/pkg/keccak"
)

// Tree is an immutable Merkle tree built with the odd-node-promotion rule:
// a lone right-most node at any level advances to the next level unhashed,
// rather than being paired with a duplicate of itself. levels[0] is the
// leaf-hash layer; the last entry is the single-element root layer (empty
// for a zero-leaf tree).
type Tree struct {
	levels [][][keccak.Size]byte
}

// Build constructs a Tree over leaves in the order given — callers pass the
// pathCBOR-sorted output of EnumerateLeaves so leaf index equals canonical
// order.
func Build(leaves []Leaf) *Tree {
	hashes := make([][keccak.Size]byte, len(leaves))
	for i, l := range leaves {
		hashes[i] = l.LeafHash
	}
	allLevels := [][][keccak.Size]byte{hashes}
	for len(allLevels[len(allLevels)-1]) > 1 {
		allLevels = append(allLevels, nextLevel(allLevels[len(allLevels)-1]))
	}
	return &Tree{levels: allLevels}
}

func nextLevel(cur [][keccak.Size]byte) [][keccak.Size]byte {
	next := make([][keccak.Size]byte, 0, (len(cur)+1)/2)
	for i := 0; i < len(cur); i += 2 {
		if i+1 < len(cur) {
			next = append(next, keccak.Hash256(cur[i][:], cur[i+1][:]))
		} else {
			next = append(next, cur[i])
		}
	}
	return next
}

// Root returns the tree's 32-byte root, the zero hash for an empty tree.
func (t *Tree) Root() [keccak.Size]byte {
	last := t.levels[len(t.levels)-1]
	if len(last) == 0 {
		return [keccak.Size]byte{}
	}
	return last[0]
}

// LeafCount returns the number of leaves the tree was built over.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Proof returns the inclusion proof for leaf index i: the sibling hash and
// direction bit at every level that has one. A level contributes nothing
// when i names that level's promoted, sibling-less lone node. direction[k]
// is true when the current node is the right child at that step, mirroring
// the on-chain verifier's keccak(sibling || node) vs keccak(node || sibling)
// choice.
func (t *Tree) Proof(i int) (proof [][keccak.Size]byte, directions []bool, err error) {
	n := len(t.levels[0])
	if i < 0 || i >= n {
		return nil, nil, &ferrors.ProofError{Reason: fmt.Sprintf("leaf index %d out of range [0,%d)", i, n)}
	}
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		levelLen := len(cur)
		if idx == levelLen-1 && levelLen%2 == 1 {
			idx = idx / 2
			continue
		}
		sibIdx := idx ^ 1
		proof = append(proof, cur[sibIdx])
		directions = append(directions, idx%2 == 1)
		idx = idx / 2
	}
	return proof, directions, nil
}
