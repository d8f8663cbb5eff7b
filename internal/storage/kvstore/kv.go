// Package kvstore keeps the encoded context under a single key of a
// key-value store.
package kvstore

import (
	"errors"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// DefaultKey is the key the context is stored under.
const DefaultKey = "ost_context"

// KV is the minimal key-value surface the backend needs.
type KV interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
}

// MemoryKV is a process-local KV.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string][]byte{}}
}

// Get returns a copy of the stored value.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

var bucketContext = []byte("context")

// BoltKV stores values in a single bbolt bucket.
type BoltKV struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt database at path.
func OpenBolt(path string) (*BoltKV, error) {
	if path == "" {
		return nil, errors.New("kvstore: bolt path is required")
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketContext); err != nil {
			return fmt.Errorf("kvstore: create bucket %s: %w", bucketContext, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltKV{db: db}, nil
}

// Close closes the database.
func (b *BoltKV) Close() error {
	return b.db.Close()
}

// Get reads key from the context bucket.
func (b *BoltKV) Get(key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(bucketContext).Get([]byte(key))
		if stored != nil {
			found = true
			value = append([]byte{}, stored...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return value, found, nil
}

// Set writes key into the context bucket.
func (b *BoltKV) Set(key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketContext).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("kvstore: set %s: %w", key, err)
	}
	return nil
}

var (
	_ KV = (*MemoryKV)(nil)
	_ KV = (*BoltKV)(nil)
)
