package merkle

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/fix-descriptor/pkg/keccak"
)

// DescribeProof renders a human-readable trace of a verification walk: the
// running node hash at every step and which side the sibling was folded in
// from. It plays no part in the verified result — Verify never calls it —
// it exists purely so a caller debugging a failed proof can see where the
// walk diverges from what they expected.
func DescribeProof(leafHash [keccak.Size]byte, proof [][keccak.Size]byte, directions []bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "leaf  %x\n", leafHash)
	node := leafHash
	for i, sibling := range proof {
		dir := "right"
		var next [keccak.Size]byte
		if i < len(directions) && directions[i] {
			dir = "left"
			next = keccak.Hash256(sibling[:], node[:])
		} else {
			next = keccak.Hash256(node[:], sibling[:])
		}
		fmt.Fprintf(&b, "step %d: sibling %x from the %s -> %x\n", i, sibling, dir, next)
		node = next
	}
	fmt.Fprintf(&b, "root  %x\n", node)
	return b.String()
}
