package fixmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatSOH(t *testing.T) {
	raw := "8=FIX.4.4\x0135=d\x0155=USTB-2030-11-15\x01223=4.250\x0115=USD\x0110=000\x01"
	fields, err := ParseFlat(raw, SepSOH)
	require.NoError(t, err)

	// Session tags 8, 35, 10 must be filtered.
	assert.Equal(t, []FlatField{
		{Tag: 55, Value: "USTB-2030-11-15"},
		{Tag: 223, Value: "4.250"},
		{Tag: 15, Value: "USD"},
	}, fields)
}

func TestParseFlatPipe(t *testing.T) {
	raw := "8=FIX.4.4|35=d|55=USTB-2030-11-15|223=4.250|15=USD|10=000"
	fields, err := ParseFlat(raw, SepPipe)
	require.NoError(t, err)
	assert.Equal(t, []FlatField{
		{Tag: 55, Value: "USTB-2030-11-15"},
		{Tag: 223, Value: "4.250"},
		{Tag: 15, Value: "USD"},
	}, fields)
}

func TestParseFlatAutoAcceptsAnySeparator(t *testing.T) {
	for _, raw := range []string{
		"55=AAPL\x01223=4.250",
		"55=AAPL|223=4.250",
		"55=AAPL\n223=4.250",
	} {
		fields, err := ParseFlat(raw, SepAuto)
		require.NoError(t, err)
		assert.Equal(t, []FlatField{{Tag: 55, Value: "AAPL"}, {Tag: 223, Value: "4.250"}}, fields)
	}
}

func TestParseFlatSkipsMalformedSegments(t *testing.T) {
	raw := "55=AAPL||noequalsign|223=4.250|"
	fields, err := ParseFlat(raw, SepPipe)
	require.NoError(t, err)
	assert.Equal(t, []FlatField{{Tag: 55, Value: "AAPL"}, {Tag: 223, Value: "4.250"}}, fields)
}

func TestParseFlatUnrecognizedHint(t *testing.T) {
	_, err := ParseFlat("55=AAPL", SeparatorHint("carriage-return"))
	require.Error(t, err)
}
