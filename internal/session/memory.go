package session

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (m *memoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	return s.Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, s *Session) error {
	cp := s.Clone()

	m.mu.Lock()
	m.sessions[s.ID] = *cp
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Ping(context.Context) error {
	return nil
}
