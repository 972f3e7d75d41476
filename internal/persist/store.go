// Package persist saves and restores the in-progress composition through a
// small durable key-value store.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Store.Get when the key is absent.
var ErrNotFound = errors.New("persist: key not found")

// Store is a durable string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

// Open builds the store for backend. dsn is a directory for file, a
// redis:// URL for redis, and a database path for sqlite.
func Open(ctx context.Context, backend Backend, dsn string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendFile:
		return NewFileStore(dsn)
	case BackendRedis:
		if dsn == "" {
			dsn = "redis://localhost:6379/0"
		}
		return NewRedisStore(ctx, dsn)
	case BackendSQLite:
		return OpenSQLiteStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Location describes where store keeps its values.
func Location(store Store) string {
	switch s := store.(type) {
	case *FileStore:
		return "file " + s.Dir()
	case *SQLiteStore:
		return "sqlite " + s.Path()
	case *RedisStore:
		return "redis " + s.client.Options().Addr
	case *MemoryStore:
		return "memory"
	default:
		return fmt.Sprintf("%T", store)
	}
}

// Close releases store resources when the implementation holds any.
func Close(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
