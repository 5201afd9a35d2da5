// Package persistence provides the key-value port the engines persist their state
// through, with in-memory, gob-file and SQLite implementations.
package persistence

import (
	"context"
	"fmt"
	"sync"
)

// Keys used by the organizer.
const (
	KeyClusterTree  = "clustering-tree"
	KeyTFIDF        = "clustering-tfidf"
	KeyLibraryItems = "library-items"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendGob    = "gob"
	BackendSQLite = "sqlite"
)

// Store is the persistence collaborator. Get reports found=false for a key that
// was never set.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Closer is implemented by stores holding OS resources.
type Closer interface {
	Close() error
}

// Open returns the store for backend rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendGob, "":
		return NewFileStore(dataDir)
	case BackendSQLite:
		return OpenSQLiteStore(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend '%s'", backend)
	}
}

// Close closes store if it holds resources.
func Close(store Store) error {
	if c, ok := store.(Closer); ok {
		return c.Close()
	}
	return nil
}

// MemoryStore keeps values in a map. Values are copied on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the number of stored keys.
func (m *MemoryStore) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
