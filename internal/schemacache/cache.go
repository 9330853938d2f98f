// Package schemacache caches compiled SBE schemas by a content hash of
// their XML bytes (§4.F: "schemas are parsed once and cached by path+hash"),
// backed by the same database.Database interface the wider dependency
// pack's storage layers use.
package schemacache

import (
	"encoding/binary"
	"hash/fnv"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/NethermindEth/fix-descriptor/internal/telemetry"
	"github.com/NethermindEth/fix-descriptor/pkg/sbe"
)

// Cache parses SBE XML into a *sbe.Schema at most once per distinct content
// hash. The parsed form lives in an in-process map for lookup speed; the raw
// bytes are additionally persisted to store so a restart can skip refetching
// the schema source, at the cost of still re-parsing once on first use.
type Cache struct {
	mu      sync.RWMutex
	parsed  map[uint64]*sbe.Schema
	store   database.Database
	logger  log.Logger
	metrics *telemetry.Metrics
}

// New builds a Cache over an arbitrary database.Database. A nil logger is
// replaced by a silent one so Load never panics on the logging path.
func New(store database.Database, logger log.Logger) *Cache {
	if logger == nil {
		logger = noOpLogger()
	}
	return &Cache{
		parsed: make(map[uint64]*sbe.Schema),
		store:  store,
		logger: logger,
	}
}

func noOpLogger() log.Logger {
	level, _ := log.ToLevel("off")
	return log.NewTestLogger(level)
}

// NewMemory builds a Cache backed by an in-process store, for tests and
// single-process deployments that don't need the schema artifact to survive
// a restart.
func NewMemory(logger log.Logger) *Cache {
	return New(newMemStore(), logger)
}

// WithMetrics attaches a telemetry.Metrics instance so future Load calls
// record schema-cache hit/miss counters; calls made before this is set
// simply aren't recorded.
func (c *Cache) WithMetrics(m *telemetry.Metrics) *Cache {
	c.metrics = m
	return c
}

// HashOf is the cache key: FNV-64a over the raw schema bytes.
func HashOf(raw []byte) uint64 {
	h := fnv.New64a()
	h.Write(raw) //nolint:errcheck // hash.Hash64.Write never returns an error
	return h.Sum64()
}

// Load returns the parsed schema for raw, compiling and caching it on first
// sight of this exact content.
func (c *Cache) Load(raw []byte) (*sbe.Schema, error) {
	key := HashOf(raw)

	c.mu.RLock()
	if s, ok := c.parsed[key]; ok {
		c.mu.RUnlock()
		c.logger.Debug("schema cache hit", "hash", key)
		if c.metrics != nil {
			c.metrics.RecordSchemaCacheHit()
		}
		return s, nil
	}
	c.mu.RUnlock()

	schema, err := sbe.LoadSchema(raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.parsed[key] = schema
	c.mu.Unlock()

	var keyBytes [8]byte
	binary.BigEndian.PutUint64(keyBytes[:], key)
	if err := c.store.Put(keyBytes[:], raw); err != nil {
		c.logger.Warn("schema cache persist failed", "hash", key, "error", err)
	}
	c.logger.Debug("schema cache miss", "hash", key, "messages", len(schema.MessageNames()))
	if c.metrics != nil {
		c.metrics.RecordSchemaCacheMiss()
	}
	return schema, nil
}

// Has reports whether raw's content hash is already resolved in memory,
// without touching the backing store.
func (c *Cache) Has(raw []byte) bool {
	key := HashOf(raw)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.parsed[key]
	return ok
}
