package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"auto-uc2-dashboard/models"
)

// Manager is the process-wide session: an in-memory copy of what the store
// holds. It is the TokenSource of the HTTP client and of the push channel.
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	cur       *Session
	listeners []func(Session, bool)
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Restore loads the stored session. An expired token is discarded.
func (m *Manager) Restore(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if claims, err := ParseClaims(s.Token); err == nil && claims.Expired(m.now()) {
		m.logger.Info("stored session expired", slog.String("user", s.User.ID))
		return m.store.Clear(ctx)
	}
	m.mu.Lock()
	m.cur = &s
	m.mu.Unlock()
	return nil
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return ""
	}
	return m.cur.Token
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return Session{}, false
	}
	return *m.cur, true
}

// Role is the stored user's role, or guest when signed out.
func (m *Manager) Role() models.Role {
	s, ok := m.Current()
	if !ok {
		return models.RoleGuest
	}
	return models.ParseRole(string(s.User.Role))
}

// Set replaces the session, e.g. after login or impersonation.
func (m *Manager) Set(ctx context.Context, s Session) error {
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.mu.Lock()
	m.cur = &s
	listeners := append([]func(Session, bool){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(s, true)
	}
	return nil
}

func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.cur = nil
	listeners := append([]func(Session, bool){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(Session{}, false)
	}
	return nil
}

// OnChange registers fn for sign-in (true) and sign-out (false).
func (m *Manager) OnChange(fn func(s Session, signedIn bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) SavedVehicles(ctx context.Context) ([]string, error) {
	return m.store.SavedVehicles(ctx)
}

func (m *Manager) ToggleSavedVehicle(ctx context.Context, id string) (bool, error) {
	return m.store.ToggleSavedVehicle(ctx, id)
}
