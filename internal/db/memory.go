package db

import (
	"context"
	"sync"

	"github.com/ukydev/fleet-rental/internal/models"
)

// MemoryStore keeps the snapshot in process memory. Useful for tests and
// ephemeral deployments.
type MemoryStore struct {
	mu    sync.Mutex
	snap  *models.Snapshot
	saves int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store preloaded with snap.
func NewMemoryStoreWith(snap models.Snapshot) *MemoryStore {
	c := clone(snap)
	return &MemoryStore{snap: &c}
}

// Load implements rental.Gateway.
func (m *MemoryStore) Load(context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return models.EmptySnapshot(), nil
	}
	return clone(*m.snap), nil
}

// Save implements rental.Gateway.
func (m *MemoryStore) Save(_ context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := clone(snap)
	m.snap = &c
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
