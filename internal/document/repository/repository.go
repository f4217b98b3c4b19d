package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docuforge/docuforge/internal/document"
)

// Repository persists documents. Every call is scoped to an owner; a document
// of another owner behaves as if it did not exist.
type Repository interface {
	Create(ctx context.Context, d *document.Document) error
	Get(ctx context.Context, ownerID, id string) (*document.Document, error)
	List(ctx context.Context, ownerID string, f document.Filters) ([]*document.Document, error)
	Update(ctx context.Context, ownerID, id string, p document.Patch) (*document.Document, error)
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", document.ErrStore, op, err)
}

// matches applies f to d in memory, mirroring the query the database
// repositories build.
func matches(d *document.Document, f document.Filters) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.TemplateIDs != nil {
		if d.TemplateID == nil || !contains(f.TemplateIDs, *d.TemplateID) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(d.Title), q) && !strings.Contains(strings.ToLower(d.Content), q) {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}

// newestFirst orders by created_at desc, id desc.
func newestFirst(docs []*document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})
}

func paginate(docs []*document.Document, f document.Filters) []*document.Document {
	limit, offset := f.Page()
	if offset >= len(docs) {
		return []*document.Document{}
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
