package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default Store: a mutex-guarded map that lives as long as the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, userID int64) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, userID int64, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Idle() {
		return m.Clear(ctx, userID)
	}
	s = s.Clone()
	s.UpdatedAt = m.now()
	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// Sweep drops every session last updated before idleSince and returns how many were removed.
func (m *MemoryStore) Sweep(ctx context.Context, idleSince time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(idleSince) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
