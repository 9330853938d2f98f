package schemacache

import (
	"context"
	"sync"

	"github.com/luxfi/database"
)

// memStore is a minimal in-process database.Database: everything this
// module needs from persistence is key/value Get/Put, so iteration and
// batching are present only to satisfy the interface.
type memStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemStore() database.Database {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *memStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *memStore) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memStore) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) Compact(start, limit []byte) error { return nil }

func (m *memStore) NewBatch() database.Batch {
	return &memBatch{store: m}
}

func (m *memStore) NewIterator() database.Iterator                                     { return nil }
func (m *memStore) NewIteratorWithStart(start []byte) database.Iterator                { return nil }
func (m *memStore) NewIteratorWithPrefix(prefix []byte) database.Iterator              { return nil }
func (m *memStore) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator { return nil }

func (m *memStore) HealthCheck(ctx context.Context) (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{"type": "schemacache.memStore", "entries": len(m.data)}, nil
}

type memBatchOp struct {
	delete bool
	key    []byte
	value  []byte
}

type memBatch struct {
	store *memStore
	ops   []memBatchOp
}

func (b *memBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, memBatchOp{key: key, value: value})
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	b.ops = append(b.ops, memBatchOp{delete: true, key: key})
	return nil
}

func (b *memBatch) ValueSize() int {
	n := 0
	for _, op := range b.ops {
		n += len(op.value)
	}
	return n
}

func (b *memBatch) Size() int {
	n := 0
	for _, op := range b.ops {
		n += len(op.key) + len(op.value)
	}
	return n
}

func (b *memBatch) Write() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.store.data, string(op.key))
		} else {
			b.store.data[string(op.key)] = op.value
		}
	}
	return nil
}

func (b *memBatch) Reset() {
	b.ops = b.ops[:0]
}

func (b *memBatch) Replay(w database.KeyValueWriterDeleter) error {
	for _, op := range b.ops {
		if op.delete {
			if err := w.Delete(op.key); err != nil {
				return err
			}
		} else if err := w.Put(op.key, op.value); err != nil {
			return err
		}
	}
	return nil
}

func (b *memBatch) Inner() database.Batch { return b }
