package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	tplservice "github.com/docuforge/docuforge/internal/doctemplate/service"
	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/document/repository"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/storage"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/docuforge/docuforge/pkg/metrics"
)

// ObjectStore receives exported print pages.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// CreateInput is what a user submits to create a document.
type CreateInput struct {
	TemplateID string
	Title      string
	Data       map[string]string
}

// UpdateInput holds optional changes. Data replaces the whole snapshot and
// triggers a re-render when the template still resolves.
type UpdateInput struct {
	Title   *string
	Data    map[string]string
	Status  *document.Status
	FileURL *string
}

// ListQuery is the user-facing filter; Type is resolved to template ids.
type ListQuery struct {
	Status document.Status
	Type   doctemplate.Type
	Search string
	Limit  int
	Offset int
}

// Service implements the document lifecycle on top of a repository and the
// template registry.
type Service struct {
	repo     repository.Repository
	registry *tplservice.Registry
	objects  ObjectStore
	now      func() time.Time
}

type Option func(*Service)

// WithObjectStore enables Export.
func WithObjectStore(o ObjectStore) Option { return func(s *Service) { s.objects = o } }

// WithClock sets the clock used for default titles.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(repo repository.Repository, registry *tplservice.Registry, opts ...Option) *Service {
	s := &Service{repo: repo, registry: registry, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func observe(op string, err error) {
	metrics.DocumentOps.WithLabelValues(op, metrics.Result(err)).Inc()
}

// Create renders the active template in.TemplateID with in.Data and stores
// the result as a draft.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (d *document.Document, err error) {
	defer func() { observe("create", err) }()
	spec, err := s.registry.GetByID(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	values, res := s.registry.Validate(spec, in.Data)
	if err := res.Err(); err != nil {
		return nil, err
	}
	content, err := s.registry.Render(spec, values)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = spec.Name + " - " + s.now().Format("02/01/2006")
	}
	tplID := spec.ID
	d = &document.Document{
		OwnerID:    ownerID,
		TemplateID: &tplID,
		Title:      title,
		Content:    content,
		Data:       values,
		Status:     document.StatusDraft,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.Debugf("document %s created from template %s", d.ID, spec.ID)
	return d, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*document.Document, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) ([]*document.Document, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, document.ErrInvalidStatus
	}
	f := document.Filters{Status: q.Status, Search: q.Search, Limit: q.Limit, Offset: q.Offset}
	if q.Type != "" {
		ids, err := s.registry.IDsByType(ctx, q.Type)
		if err != nil {
			return nil, err
		}
		f.TemplateIDs = ids
	}
	return s.repo.List(ctx, ownerID, f)
}

// Search matches q case-insensitively against title and content.
func (s *Service) Search(ctx context.Context, ownerID, q string) ([]*document.Document, error) {
	return s.repo.List(ctx, ownerID, document.Filters{Search: q})
}

// Update applies in. New data is validated and re-rendered against the
// template the document points to, fetched now. When that template is gone
// the data is saved and the content left as is.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (d *document.Document, err error) {
	defer func() { observe("update", err) }()
	if in.Status != nil && !in.Status.Valid() {
		return nil, document.ErrInvalidStatus
	}
	p := document.Patch{Title: in.Title, Status: in.Status, FileURL: in.FileURL}
	if in.Data != nil {
		cur, err := s.repo.Get(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		spec, err := s.lookupTemplate(ctx, cur)
		switch {
		case errors.Is(err, doctemplate.ErrNotFound):
			logger.Warnf("document %s: template relation broken, content left stale", id)
			p.Data = form.Parse(nil, in.Data)
		case err != nil:
			return nil, err
		default:
			values, res := s.registry.Validate(spec, in.Data)
			if err := res.Err(); err != nil {
				return nil, err
			}
			content, err := s.registry.Render(spec, values)
			if err != nil {
				return nil, err
			}
			p.Data = values
			p.Content = &content
		}
	}
	return s.repo.Update(ctx, ownerID, id, p)
}

func (s *Service) lookupTemplate(ctx context.Context, d *document.Document) (*doctemplate.Spec, error) {
	if d.TemplateID == nil {
		return nil, doctemplate.ErrNotFound
	}
	return s.registry.Lookup(ctx, *d.TemplateID)
}

// UpdateStatus moves a document to status. Any transition is allowed.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, id string, status document.Status) (*document.Document, error) {
	return s.Update(ctx, ownerID, id, UpdateInput{Status: &status})
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) (err error) {
	defer func() { observe("delete", err) }()
	return s.repo.Delete(ctx, ownerID, id)
}

// DeleteAll removes every document of ownerID. Used when an account is deleted.
func (s *Service) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.repo.DeleteByOwner(ctx, ownerID)
	observe("delete_all", err)
	return n, err
}

// Stats counts the owner's documents by status and template type.
func (s *Service) Stats(ctx context.Context, ownerID string) (document.Stats, error) {
	docs, err := s.repo.List(ctx, ownerID, document.Filters{})
	if err != nil {
		return document.Stats{}, err
	}
	types, err := s.registry.TypeIndex(ctx)
	if err != nil {
		return document.Stats{}, err
	}
	return document.ComputeStats(docs, types), nil
}

// PrintPage returns the stored content wrapped in a print-ready page.
func (s *Service) PrintPage(ctx context.Context, ownerID, id string) (string, error) {
	d, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	return document.PrintPage(d.Title, d.Content), nil
}

// Export uploads the print page to the object store and records its URL.
func (s *Service) Export(ctx context.Context, ownerID, id string) (d *document.Document, err error) {
	defer func() { observe("export", err) }()
	if s.objects == nil {
		return nil, document.ErrExportDisabled
	}
	page, err := s.PrintPage(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	key := storage.DocumentKey(ownerID, id)
	if err := s.objects.Put(ctx, key, []byte(page), "text/html; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("%w: export: %v", document.ErrStore, err)
	}
	url, err := s.objects.URL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: export: %v", document.ErrStore, err)
	}
	return s.repo.Update(ctx, ownerID, id, document.Patch{FileURL: &url})
}
