package schemacache

import (
	"encoding/binary"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/fix-descriptor/internal/telemetry"
)

const cacheTestSchemaXML = `<?xml version="1.0"?>
<sbe:messageSchema xmlns:sbe="http://fixprotocol.io/2016/sbe" id="1" version="1">
  <sbe:message name="Ping" id="1" blockLength="1">
    <field name="Seq" id="1" offset="0" type="char"/>
  </sbe:message>
</sbe:messageSchema>`

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	level, err := log.ToLevel("debug")
	require.NoError(t, err)
	return log.NewTestLogger(level)
}

func TestLoadParsesOnFirstSight(t *testing.T) {
	c := NewMemory(testLogger(t))
	assert.False(t, c.Has([]byte(cacheTestSchemaXML)))

	schema, err := c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)
	assert.True(t, c.Has([]byte(cacheTestSchemaXML)))

	layout, ok := schema.MessageByName("Ping")
	require.True(t, ok)
	assert.Equal(t, 1, layout.TemplateID)
}

func TestLoadReturnsSamePointerOnHit(t *testing.T) {
	c := NewMemory(testLogger(t))
	first, err := c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)
	second, err := c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadPersistsRawBytesToStore(t *testing.T) {
	store := newMemStore()
	c := New(store, testLogger(t))
	_, err := c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)

	var keyBytes [8]byte
	binary.BigEndian.PutUint64(keyBytes[:], HashOf([]byte(cacheTestSchemaXML)))
	raw, err := store.Get(keyBytes[:])
	require.NoError(t, err)
	assert.Equal(t, cacheTestSchemaXML, string(raw))
}

func TestLoadRejectsMalformedSchema(t *testing.T) {
	c := NewMemory(testLogger(t))
	_, err := c.Load([]byte("<not-xml"))
	require.Error(t, err)
}

func TestLoadSurvivesNilLogger(t *testing.T) {
	c := NewMemory(nil)
	schema, err := c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)
	_, ok := schema.MessageByName("Ping")
	assert.True(t, ok)

	// exercises the hit path's logging call too, with the same nil-replaced logger.
	_, err = c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)
}

func TestLoadRecordsHitAndMissCounters(t *testing.T) {
	c := NewMemory(testLogger(t))
	m := telemetry.New("schemacache_test", testLogger(t))
	c.WithMetrics(m)

	_, err := c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)
	_, err = c.Load([]byte(cacheTestSchemaXML))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "schemacache_test_schema_cache_misses_total 1")
	assert.Contains(t, string(body), "schemacache_test_schema_cache_hits_total 1")
}

func TestHashOfIsDeterministic(t *testing.T) {
	a := HashOf([]byte("schema-bytes"))
	b := HashOf([]byte("schema-bytes"))
	assert.Equal(t, a, b)
	c := HashOf([]byte("different-bytes"))
	assert.NotEqual(t, a, c)
}
