package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local development.
// Expiry is enforced at read time.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]Session
	byToken map[string]uuid.UUID
	byUser  map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]Session),
		byToken: make(map[string]uuid.UUID),
		byUser:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (m *MemoryStore) Store(_ context.Context, s *Session) error {
	if !time.Now().Before(s.ExpiresAt) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[s.ID] = *s
	m.byToken[s.Token] = s.ID
	if m.byUser[s.UserID] == nil {
		m.byUser[s.UserID] = make(map[uuid.UUID]struct{})
	}
	m.byUser[s.UserID][s.ID] = struct{}{}
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *MemoryStore) GetByToken(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return m.getLocked(id)
}

func (m *MemoryStore) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
	return nil
}

func (m *MemoryStore) RemoveAllForUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.byUser[userID] {
		m.removeLocked(id)
	}
	delete(m.byUser, userID)
	return nil
}

// getLocked returns a copy of the live session, dropping it if expired.
func (m *MemoryStore) getLocked(id uuid.UUID) (*Session, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(time.Now()) {
		m.removeLocked(id)
		return nil, ErrNotFound
	}
	out := s
	return &out, nil
}

func (m *MemoryStore) removeLocked(id uuid.UUID) {
	s, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	delete(m.byToken, s.Token)
	if set, ok := m.byUser[s.UserID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.byUser, s.UserID)
		}
	}
}
