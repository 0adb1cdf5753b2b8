package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/cardpoint/onboarding-service/internal/models"
)

// MemoryStore keeps sessions and themes in process. It backs local runs
// and tests; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	themes   map[string]models.Theme
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		themes:   make(map[string]models.Theme),
		ttl:      ttl,
		now:      now,
	}
}

var (
	_ SessionRepository = (*MemoryStore)(nil)
	_ ThemeRepository   = (*MemoryStore)(nil)
)

func (m *MemoryStore) Load(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id).Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.Clone()
	c.UpdatedAt = m.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
	m.sessions[c.ID] = c
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, mutate MutateFunc) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.getLocked(id).Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.RowVersion++
	working.UpdatedAt = m.now()
	if working.CreatedAt.IsZero() {
		working.CreatedAt = working.UpdatedAt
	}
	m.sessions[id] = working
	return working.Clone(), nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) CleanupExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, s := range m.sessions {
		if sessionExpired(s, now) || m.idle(s, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) GetTheme(_ context.Context, clientKey string) (models.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.themes[clientKey]; ok {
		return t, nil
	}
	return models.DefaultTheme, nil
}

func (m *MemoryStore) SetTheme(_ context.Context, clientKey string, theme models.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[clientKey] = theme
	return nil
}

// getLocked returns the stored session or fresh defaults. Callers hold mu
// and must clone before handing the value out.
func (m *MemoryStore) getLocked(id string) *models.Session {
	s, ok := m.sessions[id]
	if !ok {
		return models.NewSession(id)
	}
	now := m.now()
	if sessionExpired(s, now) || m.idle(s, now) {
		delete(m.sessions, id)
		return models.NewSession(id)
	}
	return s
}

func (m *MemoryStore) idle(s *models.Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}
