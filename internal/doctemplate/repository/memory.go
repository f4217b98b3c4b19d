package repository

import (
	"context"
	"sync"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
)

// MemoryRepo keeps templates in process memory. Used by tests and the
// default "memory" store backend.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]doctemplate.Spec
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]doctemplate.Spec), now: time.Now}
}

func (m *MemoryRepo) List(_ context.Context, activeOnly bool) ([]doctemplate.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]doctemplate.Spec, 0, len(m.store))
	for _, s := range m.store {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sortByName(out)
	return out, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*doctemplate.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, doctemplate.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryRepo) ListByType(_ context.Context, t doctemplate.Type, activeOnly bool) ([]doctemplate.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []doctemplate.Spec
	for _, s := range m.store {
		if s.Type != t || (activeOnly && !s.Active) {
			continue
		}
		out = append(out, s)
	}
	sortByRecency(out)
	return out, nil
}

// Upsert inserts or replaces a template by id. CreatedAt of an existing entry
// is kept; a zero UpdatedAt is stamped with the current time.
func (m *MemoryRepo) Upsert(_ context.Context, s *doctemplate.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	if prev, ok := m.store[s.ID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	m.store[s.ID] = *s
	return nil
}
