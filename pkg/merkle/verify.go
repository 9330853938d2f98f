package merkle

import "github.com/NethermindEth/fix-descriptor/pkg/keccak"

// Verify recomputes a leaf's path up to the root from leafHash and a proof,
// mirroring the on-chain verifier contract bit for bit. It is total: a
// corrupt proof (wrong length pairing, wrong sibling, wrong direction) never
// errors, it just makes the final comparison fail.
func Verify(root [keccak.Size]byte, leafHash [keccak.Size]byte, proof [][keccak.Size]byte, directions []bool) bool {
	if len(proof) != len(directions) {
		return false
	}
	node := leafHash
	for i, sibling := range proof {
		if directions[i] {
			node = keccak.Hash256(sibling[:], node[:])
		} else {
			node = keccak.Hash256(node[:], sibling[:])
		}
	}
	return node == root
}
