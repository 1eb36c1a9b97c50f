package blob

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/vaultsync/internal/common"
)

// MemoryStore keeps blobs in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, userID, key string, data []byte) (string, error) {
	if err := checkUser(userID); err != nil {
		return "", err
	}
	if err := checkKey(key); err != nil {
		return "", err
	}

	cp := append([]byte(nil), data...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs[userID] == nil {
		m.blobs[userID] = make(map[string][]byte)
	}
	m.blobs[userID][key] = cp

	return Digest(cp), nil
}

func (m *MemoryStore) Read(_ context.Context, userID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[userID][key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, userID, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[userID][key]; !ok {
		return false, nil
	}
	delete(m.blobs[userID], key)
	return true, nil
}

func (m *MemoryStore) Size(_ context.Context, userID, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[userID][key]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return int64(len(data)), nil
}

func (m *MemoryStore) DeleteAll(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, userID)
	return nil
}

// Len returns the number of blobs held for userID.
func (m *MemoryStore) Len(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs[userID])
}
