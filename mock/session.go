package mock

import (
	"sync"

	"github.com/fwojciec/parley"
)

// MemorySessionStore is an in-memory parley.SessionStore for tests that need
// a working store rather than scripted responses.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *parley.Session
}

var _ parley.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore returns a store holding s, or an empty store when s
// is nil.
func NewMemorySessionStore(s *parley.Session) *MemorySessionStore {
	m := &MemorySessionStore{}
	if s != nil {
		cp := *s
		m.session = &cp
	}
	return m
}

// Save stores a copy of s.
func (m *MemorySessionStore) Save(s parley.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

// Get returns a copy of the stored session, or nil.
func (m *MemorySessionStore) Get() (*parley.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	return &cp, nil
}

// Clear removes the stored session.
func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
