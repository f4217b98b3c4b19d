package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/doctemplate/repository"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/docuforge/docuforge/pkg/metrics"
)

// Registry is the read side of the template catalog plus the render entry
// point shared by previews and documents.
type Registry struct {
	repo     repository.Repository
	renderer *render.Renderer
}

func NewRegistry(repo repository.Repository, renderer *render.Renderer) *Registry {
	return &Registry{repo: repo, renderer: renderer}
}

// Seed upserts every template. Used at startup with the embedded catalog.
func (r *Registry) Seed(ctx context.Context, specs []doctemplate.Spec) error {
	for i := range specs {
		if err := r.repo.Upsert(ctx, &specs[i]); err != nil {
			return fmt.Errorf("seed %s: %w", specs[i].ID, err)
		}
	}
	logger.Infof("template catalog seeded with %d templates", len(specs))
	return nil
}

// ListActive returns the active templates ordered by name.
func (r *Registry) ListActive(ctx context.Context) ([]doctemplate.Spec, error) {
	return r.repo.List(ctx, true)
}

// GetByID returns an active template.
func (r *Registry) GetByID(ctx context.Context, id string) (*doctemplate.Spec, error) {
	s, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Active {
		return nil, doctemplate.ErrNotFound
	}
	return s, nil
}

// Lookup follows a stored template relation; deactivated templates still resolve.
func (r *Registry) Lookup(ctx context.Context, id string) (*doctemplate.Spec, error) {
	return r.repo.Get(ctx, id)
}

// GetByType returns the active template of type t. When several are active
// the most recently updated wins, ties broken by lowest id.
func (r *Registry) GetByType(ctx context.Context, t doctemplate.Type) (*doctemplate.Spec, error) {
	list, err := r.repo.ListByType(ctx, t, true)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, doctemplate.ErrNotFound
	}
	if len(list) > 1 {
		logger.Debugf("%d active templates of type %s, using %s", len(list), t, list[0].ID)
	}
	return &list[0], nil
}

// IDsByType lists the ids of every template of type t, active or not.
func (r *Registry) IDsByType(ctx context.Context, t doctemplate.Type) ([]string, error) {
	list, err := r.repo.ListByType(ctx, t, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// TypeIndex maps every known template id to its type.
func (r *Registry) TypeIndex(ctx context.Context) (map[string]doctemplate.Type, error) {
	list, err := r.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]doctemplate.Type, len(list))
	for _, s := range list {
		out[s.ID] = s.Type
	}
	return out, nil
}

// Validate types raw against the template fields and checks them.
func (r *Registry) Validate(spec *doctemplate.Spec, raw map[string]string) (form.ValueMap, form.Result) {
	values := spec.Values(raw)
	res := form.Validate(spec.Fields, values)
	if !res.Valid {
		metrics.ValidationFailures.WithLabelValues(spec.ID).Inc()
	}
	return values, res
}

// Render merges values into the template body. Compile errors are logged here
// and returned unchanged.
func (r *Registry) Render(spec *doctemplate.Spec, values form.ValueMap) (string, error) {
	start := time.Now()
	out, err := spec.Render(r.renderer, values)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Renders.WithLabelValues(string(spec.Type), "compile_error").Inc()
		var ce *render.CompileError
		if errors.As(err, &ce) {
			logger.Errorf("template %s: %v", spec.ID, ce)
		}
		return "", err
	}
	metrics.Renders.WithLabelValues(string(spec.Type), "ok").Inc()
	return out, nil
}

// Preview validates raw values against an active template and renders it.
// Nothing is persisted. A failed validation returns form.ValidationErrors.
func (r *Registry) Preview(ctx context.Context, id string, raw map[string]string) (string, error) {
	spec, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	values, res := r.Validate(spec, raw)
	if err := res.Err(); err != nil {
		return "", err
	}
	return r.Render(spec, values)
}
