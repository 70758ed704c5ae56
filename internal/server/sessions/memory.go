package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/server/models"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.Session
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.Session), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = *s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	s, ok := m.items[id]
	m.mu.RUnlock()

	if !ok || s.Expired(m.now()) {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// DeleteExpired drops expired sessions and returns how many were removed.
func (m *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.items {
		if s.Expired(now) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}
