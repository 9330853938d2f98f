package fixcore

import (
	"testing"

	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
	"github.com/NethermindEth/fix-descriptor/pkg/sbe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() *sbe.MessageLayout {
	return &sbe.MessageLayout{
		TemplateID: 37,
		Name:       "SecurityDefinition",
		Fields: []sbe.FixedField{
			{Tag: 965, SBEType: "char", Size: 1},
		},
		DataFields: []sbe.DataField{
			{Tag: 55, Name: "Symbol"},
		},
		Groups: []*sbe.GroupLayout{
			{
				CountTag: 454,
				Name:     "SecAltIDGrp",
				Fields:   []sbe.FixedField{{Tag: 455, SBEType: "char", Size: 1}},
				DataFields: []sbe.DataField{
					{Tag: 456, Name: "SecurityAltIDSource"},
				},
			},
		},
	}
}

func TestStructureFlatRootFields(t *testing.T) {
	flats, err := fixmsg.ParseFlat("965=4|55=AAPL", fixmsg.SepPipe)
	require.NoError(t, err)

	desc, err := Structure(flats, testLayout())
	require.NoError(t, err)

	node, ok := desc.Get(965)
	require.True(t, ok)
	assert.Equal(t, "4", string(node.Value))

	node, ok = desc.Get(55)
	require.True(t, ok)
	assert.Equal(t, "AAPL", string(node.Value))
}

func TestStructureDropsUnrecognizedRootTag(t *testing.T) {
	flats, err := fixmsg.ParseFlat("965=4|9999=ignored|55=AAPL", fixmsg.SepPipe)
	require.NoError(t, err)

	desc, err := Structure(flats, testLayout())
	require.NoError(t, err)
	assert.Equal(t, []int{965, 55}, desc.Tags())
}

func TestStructureBuildsGroupEntries(t *testing.T) {
	// 455 is the group's delimiter tag (its first fixed field); 454 is the
	// NoXxx count tag.
	flats, err := fixmsg.ParseFlat(
		"965=4|55=AAPL|454=2|455=A|456=1|455=B|456=2",
		fixmsg.SepPipe)
	require.NoError(t, err)

	desc, err := Structure(flats, testLayout())
	require.NoError(t, err)

	node, ok := desc.Get(454)
	require.True(t, ok)
	require.Equal(t, fixmsg.KindGroup, node.Kind)
	require.Len(t, node.Group, 2)

	first := node.Group[0]
	v, ok := first.Get(455)
	require.True(t, ok)
	assert.Equal(t, "A", string(v.Value))
	v, ok = first.Get(456)
	require.True(t, ok)
	assert.Equal(t, "1", string(v.Value))

	second := node.Group[1]
	v, ok = second.Get(455)
	require.True(t, ok)
	assert.Equal(t, "B", string(v.Value))
}

func TestStructureGroupEntryMissingDelimiterFails(t *testing.T) {
	// Declares two entries but only supplies one.
	flats, err := fixmsg.ParseFlat("454=2|455=A|456=1", fixmsg.SepPipe)
	require.NoError(t, err)

	_, err = Structure(flats, testLayout())
	require.Error(t, err)
}

func TestStructureGroupCountNotNumericFails(t *testing.T) {
	flats := []fixmsg.FlatField{{Tag: 454, Value: "not-a-number"}}
	_, err := Structure(flats, testLayout())
	require.Error(t, err)
}

func TestStructureEmptyInputProducesEmptyDescriptor(t *testing.T) {
	desc, err := Structure(nil, testLayout())
	require.NoError(t, err)
	assert.Equal(t, 0, desc.Len())
}
