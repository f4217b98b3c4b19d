package repository

import (
	"context"
	"sync"
	"time"

	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/google/uuid"
)

// MemoryRepo is an in-process document store, used by tests and the "memory"
// backend. Records are copied in and out so callers never share state with it.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document), now: time.Now}
}

// WithClock replaces the timestamp source.
func (m *MemoryRepo) WithClock(now func() time.Time) *MemoryRepo {
	m.now = now
	return m
}

func clone(d *document.Document) *document.Document {
	c := *d
	c.Data = cloneValues(d.Data)
	c.TemplateID = cloneString(d.TemplateID)
	c.FileURL = cloneString(d.FileURL)
	return &c
}

func cloneValues(in form.ValueMap) form.ValueMap {
	if in == nil {
		return nil
	}
	out := make(form.ValueMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (m *MemoryRepo) Create(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = m.now().UTC()
	d.UpdatedAt = d.CreatedAt
	m.store[d.ID] = clone(d)
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, ownerID, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.store[id]
	if !ok || d.OwnerID != ownerID {
		return nil, document.ErrNotFound
	}
	return clone(d), nil
}

func (m *MemoryRepo) List(_ context.Context, ownerID string, f document.Filters) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if d.OwnerID == ownerID && matches(d, f) {
			out = append(out, clone(d))
		}
	}
	newestFirst(out)
	return paginate(out, f), nil
}

func (m *MemoryRepo) Update(_ context.Context, ownerID, id string, p document.Patch) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok || d.OwnerID != ownerID {
		return nil, document.ErrNotFound
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Data != nil {
		d.Data = cloneValues(p.Data)
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.FileURL != nil {
		d.FileURL = cloneString(p.FileURL)
	}
	d.UpdatedAt = m.now().UTC()
	return clone(d), nil
}

func (m *MemoryRepo) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok || d.OwnerID != ownerID {
		return document.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.store {
		if d.OwnerID == ownerID {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}
