package merkle

import (
	"fmt"
	"testing"

	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
	"github.com/NethermindEth/fix-descriptor/pkg/keccak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descWith(pairs map[int]string) *fixmsg.Descriptor {
	d := fixmsg.NewDescriptor()
	for tag, v := range pairs {
		_ = d.Set(tag, fixmsg.Scalar([]byte(v)))
	}
	return d
}

func TestEnumerateLeavesStripsSessionTagsAndEmptyValues(t *testing.T) {
	d := fixmsg.NewDescriptor()
	require.NoError(t, d.Set(8, fixmsg.Scalar([]byte("FIX.4.4"))))
	require.NoError(t, d.Set(55, fixmsg.Scalar([]byte("AAPL"))))
	require.NoError(t, d.Set(223, fixmsg.Scalar([]byte(""))))
	require.NoError(t, d.Set(10, fixmsg.Scalar([]byte("000"))))

	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, []int{55}, leaves[0].Path)
}

func TestEnumerateLeavesSortsByCanonicalPath(t *testing.T) {
	// 223 encodes to a shorter CBOR prefix than 541, but tag value alone
	// doesn't determine sort order — canonical path bytes do.
	d := descWith(map[int]string{541: "a", 55: "b", 223: "c"})
	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	require.Len(t, leaves, 3)

	for i := 1; i < len(leaves); i++ {
		assert.LessOrEqual(t, 1, compareBytes(leaves[i].PathCBOR, leaves[i-1].PathCBOR))
	}
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	switch {
	case len(a) > len(b):
		return 1
	case len(a) < len(b):
		return -1
	default:
		return 0
	}
}

func TestEnumerateLeavesWalksNestedGroups(t *testing.T) {
	entry0 := descWith(map[int]string{455: "US1234567890", 456: "1"})
	entry1 := descWith(map[int]string{455: "GB0987654321", 456: "1"})
	d := fixmsg.NewDescriptor()
	require.NoError(t, d.Set(454, fixmsg.GroupOf(entry0, entry1)))

	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	require.Len(t, leaves, 4)

	paths := map[string]bool{}
	for _, l := range leaves {
		key := ""
		for _, p := range l.Path {
			key += intString(p) + "/"
		}
		paths[key] = true
	}
	assert.True(t, paths["454/0/455/"])
	assert.True(t, paths["454/0/456/"])
	assert.True(t, paths["454/1/455/"])
	assert.True(t, paths["454/1/456/"])
}

func intString(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

func TestSingleLeafTreeRootEqualsLeafHash(t *testing.T) {
	d := descWith(map[int]string{55: "AAPL"})
	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	require.Len(t, leaves, 1)

	tree := Build(leaves)
	assert.Equal(t, leaves[0].LeafHash, tree.Root())

	proof, directions, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.Empty(t, directions)
	assert.True(t, Verify(tree.Root(), leaves[0].LeafHash, proof, directions))
}

func TestThreeLeafTreeUsesOddNodePromotionNotDuplication(t *testing.T) {
	a := keccak.Hash256([]byte("a"))
	b := keccak.Hash256([]byte("b"))
	c := keccak.Hash256([]byte("c"))
	leaves := []Leaf{{LeafHash: a}, {LeafHash: b}, {LeafHash: c}}

	tree := Build(leaves)
	ab := keccak.Hash256(a[:], b[:])
	want := keccak.Hash256(ab[:], c[:])
	assert.Equal(t, want, tree.Root())

	// Leaf c (index 2) is the promoted lone node at level 0: its only proof
	// step is against H(a,b), arriving from the left.
	proof, directions, err := tree.Proof(2)
	require.NoError(t, err)
	require.Len(t, proof, 1)
	assert.Equal(t, ab, proof[0])
	assert.Equal(t, []bool{true}, directions)
	assert.True(t, Verify(tree.Root(), c, proof, directions))
}

func TestFourLeafTreeEveryLeafVerifies(t *testing.T) {
	hashes := make([]Leaf, 4)
	for i := range hashes {
		hashes[i] = Leaf{LeafHash: keccak.Hash256([]byte{byte('a' + i)})}
	}
	tree := Build(hashes)
	root := tree.Root()
	for i, l := range hashes {
		proof, directions, err := tree.Proof(i)
		require.NoError(t, err)
		assert.True(t, Verify(root, l.LeafHash, proof, directions), "leaf %d", i)
	}
}

func TestProofRejectsOutOfRangeIndex(t *testing.T) {
	d := descWith(map[int]string{55: "AAPL"})
	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	tree := Build(leaves)

	_, _, err = tree.Proof(5)
	require.Error(t, err)
	_, _, err = tree.Proof(-1)
	require.Error(t, err)
}

func TestVerifyRejectsWrongLeafAgainstAnothersProof(t *testing.T) {
	d := descWith(map[int]string{55: "AAPL", 223: "4.25"})
	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	tree := Build(leaves)

	proof, directions, err := tree.Proof(0)
	require.NoError(t, err)
	// leaves[1]'s hash was not the one this proof was generated for.
	assert.False(t, Verify(tree.Root(), leaves[1].LeafHash, proof, directions))
}

func TestVerifyRejectsMismatchedProofLength(t *testing.T) {
	root := keccak.Hash256([]byte("root"))
	leaf := keccak.Hash256([]byte("leaf"))
	proof := [][keccak.Size]byte{keccak.Hash256([]byte("x"))}
	assert.False(t, Verify(root, leaf, proof, nil))
}

func TestDescribeProofTraceEndsAtRoot(t *testing.T) {
	a := keccak.Hash256([]byte("a"))
	b := keccak.Hash256([]byte("b"))
	c := keccak.Hash256([]byte("c"))
	tree := Build([]Leaf{{LeafHash: a}, {LeafHash: b}, {LeafHash: c}})

	proof, directions, err := tree.Proof(2)
	require.NoError(t, err)
	trace := DescribeProof(c, proof, directions)
	assert.Contains(t, trace, "leaf  ")
	assert.True(t, Verify(tree.Root(), c, proof, directions))
	rootHex := fmt.Sprintf("%x", tree.Root())
	assert.Contains(t, trace, rootHex)
}

func TestDuplicateLeafValuesProduceDistinctHashesViaPath(t *testing.T) {
	d := descWith(map[int]string{55: "AAPL", 223: "AAPL"})
	leaves, err := EnumerateLeaves(d)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.NotEqual(t, leaves[0].LeafHash, leaves[1].LeafHash)
}
