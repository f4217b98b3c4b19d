package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/docuforge/docuforge/internal/doctemplate"
)

// Repository stores document templates. Get returns inactive templates too;
// filtering on Active is the caller's business unless activeOnly is set.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]doctemplate.Spec, error)
	Get(ctx context.Context, id string) (*doctemplate.Spec, error)
	ListByType(ctx context.Context, t doctemplate.Type, activeOnly bool) ([]doctemplate.Spec, error)
	Upsert(ctx context.Context, s *doctemplate.Spec) error
}

// storeErr tags a backend failure so callers can match doctemplate.ErrStore.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", doctemplate.ErrStore, op, err)
}

func sortByName(specs []doctemplate.Spec) {
	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].Name != specs[j].Name {
			return specs[i].Name < specs[j].Name
		}
		return specs[i].ID < specs[j].ID
	})
}

// sortByRecency orders the most recently updated first, then by id.
func sortByRecency(specs []doctemplate.Spec) {
	sort.SliceStable(specs, func(i, j int) bool {
		if !specs[i].UpdatedAt.Equal(specs[j].UpdatedAt) {
			return specs[i].UpdatedAt.After(specs[j].UpdatedAt)
		}
		return specs[i].ID < specs[j].ID
	})
}
