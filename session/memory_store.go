package session

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps everything in process; used by the console and tests.
type MemoryStore struct {
	mu    sync.Mutex
	sess  *Session
	saved []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil || m.sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return *m.sess, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &s
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *MemoryStore) SavedVehicles(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.saved...), nil
}

func (m *MemoryStore) ToggleSavedVehicle(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.Index(m.saved, id); i >= 0 {
		m.saved = slices.Delete(m.saved, i, i+1)
		return false, nil
	}
	m.saved = append(m.saved, id)
	return true, nil
}
