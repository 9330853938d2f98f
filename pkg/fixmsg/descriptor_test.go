package fixmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorSetGetOrder(t *testing.T) {
	d := NewDescriptor()
	require.NoError(t, d.Set(55, Scalar([]byte("AAPL"))))
	require.NoError(t, d.Set(223, Scalar([]byte("4.250"))))
	require.NoError(t, d.Set(15, Scalar([]byte("USD"))))

	assert.Equal(t, []int{55, 223, 15}, d.Tags())
	assert.Equal(t, 3, d.Len())

	node, ok := d.Get(223)
	require.True(t, ok)
	assert.Equal(t, "4.250", string(node.Value))
}

func TestDescriptorRejectsDuplicateTag(t *testing.T) {
	d := NewDescriptor()
	require.NoError(t, d.Set(55, Scalar([]byte("AAPL"))))
	err := d.Set(55, Scalar([]byte("IBM")))
	require.Error(t, err)
	var dup *DuplicateTagError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, 55, dup.Tag)
}

func TestDescriptorGroupOf(t *testing.T) {
	child0 := NewDescriptor()
	require.NoError(t, child0.Set(455, Scalar([]byte("A"))))
	child1 := NewDescriptor()
	require.NoError(t, child1.Set(455, Scalar([]byte("B"))))

	d := NewDescriptor()
	require.NoError(t, d.Set(454, GroupOf(child0, child1)))

	node, ok := d.Get(454)
	require.True(t, ok)
	require.Equal(t, KindGroup, node.Kind)
	require.Len(t, node.Group, 2)
	assert.Equal(t, "B", string(mustScalar(t, node.Group[1], 455)))
}

func TestStripSessionTags(t *testing.T) {
	d := NewDescriptor()
	require.NoError(t, d.Set(8, Scalar([]byte("FIX.4.4"))))
	require.NoError(t, d.Set(35, Scalar([]byte("d"))))
	require.NoError(t, d.Set(55, Scalar([]byte("AAPL"))))
	require.NoError(t, d.Set(10, Scalar([]byte("000"))))

	stripped := d.StripSessionTags()
	assert.Equal(t, []int{55}, stripped.Tags())
}

func mustScalar(t *testing.T, d *Descriptor, tag int) []byte {
	t.Helper()
	node, ok := d.Get(tag)
	require.True(t, ok)
	return node.Value
}
