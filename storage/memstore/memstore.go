package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-tenant-console/storage"
)

var _ storage.Store = (*MemStore)(nil)

// MemStore keeps values for the lifetime of the process only.
type MemStore struct {
	items map[string][]byte
	lock  sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		items: make(map[string][]byte),
	}
}

func (m *MemStore) SetItem(_ context.Context, key string, value any) error {
	b, err := storage.Encode(key, value)
	if err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.items[key] = b
	return nil
}

func (m *MemStore) GetItem(_ context.Context, key string, out any) (bool, error) {
	m.lock.RLock()
	b, ok := m.items[key]
	m.lock.RUnlock()
	if !ok {
		return false, nil
	}
	return true, storage.Decode(key, b, out)
}

func (m *MemStore) RemoveItem(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.items, key)
	return nil
}

// Has reports whether key is present.
func (m *MemStore) Has(key string) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.items[key]
	return ok
}

// Len returns the number of stored keys.
func (m *MemStore) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.items)
}
