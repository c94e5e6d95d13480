package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harrison/labourcheck/internal/models"
)

// MemoryStore is an in-process Repository. Data is lost when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	events   []Event
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get implements Repository.
func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get session %s: %w", id, models.ErrSessionNotFound)
	}
	return cloneSession(s)
}

// GetByEmail implements Repository.
func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = NormalizeEmail(email)
	var latest *models.Session
	for _, s := range m.sessions {
		if s.Email != email {
			continue
		}
		if latest == nil || s.UpdatedAt.After(latest.UpdatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("get session by email: %w", models.ErrSessionNotFound)
	}
	return cloneSession(latest)
}

// Upsert implements Repository.
func (m *MemoryStore) Upsert(ctx context.Context, id string, update models.SessionUpdate) (*models.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("upsert session: id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[id]
	if !ok {
		s = &models.Session{ID: id, CreatedAt: now}
		m.sessions[id] = s
	}
	normalizeUpdate(update).Apply(s)
	s.UpdatedAt = now

	return cloneSession(s)
}

// List implements Repository.
func (m *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Session
	for _, s := range m.sessions {
		if !opts.matches(s) {
			continue
		}
		c, err := cloneSession(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// RecordEvent implements Repository.
func (m *MemoryStore) RecordEvent(ctx context.Context, sessionID string, kind EventKind, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, Event{
		ID:        int64(len(m.events) + 1),
		SessionID: sessionID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: m.now(),
	})
	return nil
}

// Events implements Repository.
func (m *MemoryStore) Events(ctx context.Context, sessionID string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for _, e := range m.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close implements Repository.
func (m *MemoryStore) Close() error {
	return nil
}

// cloneSession deep-copies a session so callers never share state with the store.
func cloneSession(s *models.Session) (*models.Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("copy session %s: %w", s.ID, err)
	}
	var out models.Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy session %s: %w", s.ID, err)
	}
	return &out, nil
}
