package fixcore

import (
	"testing"

	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaultsSeparatorToAuto(t *testing.T) {
	cfg, err := ParseFlags([]string{"-schema", "schema.xml", "-message", "SecurityDefinition"})
	require.NoError(t, err)
	assert.Equal(t, "schema.xml", cfg.SchemaPath)
	assert.Equal(t, "SecurityDefinition", cfg.MessageIDOrName)
	assert.Equal(t, fixmsg.SepAuto, cfg.SeparatorHint)
	assert.Nil(t, cfg.ScalingOverrides)
}

func TestParseFlagsCollectsRepeatedScaleOverrides(t *testing.T) {
	cfg, err := ParseFlags([]string{
		"-schema", "schema.xml",
		"-scale-override", "223:8",
		"-scale-override", "44:4",
	})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{223: 8, 44: 4}, cfg.ScalingOverrides)
}

func TestParseFlagsRejectsMalformedOverride(t *testing.T) {
	_, err := ParseFlags([]string{"-scale-override", "not-a-pair"})
	require.Error(t, err)
}

func TestParseFlagsHonorsExplicitSeparator(t *testing.T) {
	cfg, err := ParseFlags([]string{"-separator", "pipe"})
	require.NoError(t, err)
	assert.Equal(t, fixmsg.SeparatorHint("pipe"), cfg.SeparatorHint)
}

func TestConfigCacheDefaultsToMemoryBackend(t *testing.T) {
	cfg := Config{}
	c := cfg.Cache(testLogger(t))
	assert.False(t, c.Has([]byte("anything")))
}

func TestConfigNewPipelineAppliesScalingOverrides(t *testing.T) {
	cfg := Config{ScalingOverrides: map[int]int{223: 2}}
	p, err := cfg.NewPipeline([]byte(pipelineSchemaXML), testLogger(t))
	require.NoError(t, err)

	result, err := p.Commit("SecurityDefinition", "965=4|223=1.00|55=AAPL", "pipe")
	require.NoError(t, err)

	_, decoded, err := p.Decode(result.SBE)
	require.NoError(t, err)
	node, ok := decoded.Get(223)
	require.True(t, ok)
	assert.Equal(t, "100", string(node.Value))
}
