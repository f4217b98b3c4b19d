package document

import (
	"errors"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/form"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrStore         = errors.New("document store failure")
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrExportDisabled is returned when no object store is configured.
	ErrExportDisabled = errors.New("document export is not configured")
)

// Status is the flat lifecycle state of a document. Any status may move to any
// other.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Document is a rendered, user-owned document. Content is the frozen render of
// the template body with Data at the time of the last save.
type Document struct {
	ID         string        `json:"id" bson:"_id"`
	OwnerID    string        `json:"user_id" bson:"ownerId"`
	TemplateID *string       `json:"template_id" bson:"templateId"`
	Title      string        `json:"title" bson:"title"`
	Content    string        `json:"content" bson:"content"`
	Data       form.ValueMap `json:"data" bson:"-"`
	Status     Status        `json:"status" bson:"status"`
	FileURL    *string       `json:"file_url" bson:"fileUrl,omitempty"`
	CreatedAt  time.Time     `json:"created_at" bson:"createdAt"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updatedAt"`
}

// Patch carries the optional fields of an update. A nil field is left alone.
type Patch struct {
	Title   *string
	Data    form.ValueMap
	Status  *Status
	FileURL *string
	// Content is only set by the service after a re-render.
	Content *string
}

// Filters narrows a document listing. TemplateIDs restricts to documents whose
// template is in the set; a non-nil empty slice matches nothing.
type Filters struct {
	Status      Status
	TemplateIDs []string
	Search      string
	Limit       int
	Offset      int
}

// DefaultPageSize applies when an offset is given without a limit.
const DefaultPageSize = 10

// Page returns the effective limit and offset.
func (f Filters) Page() (limit, offset int) {
	limit, offset = f.Limit, f.Offset
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 && offset > 0 {
		limit = DefaultPageSize
	}
	return limit, offset
}

// Stats summarises a set of documents by status and template type.
type Stats struct {
	Total     int                      `json:"total"`
	Drafts    int                      `json:"drafts"`
	Published int                      `json:"published"`
	Archived  int                      `json:"archived"`
	ByType    map[doctemplate.Type]int `json:"by_type"`
}

// ComputeStats counts docs by status, and by template type where the template
// relation resolves through types. Unresolved documents only count by status.
func ComputeStats(docs []*Document, types map[string]doctemplate.Type) Stats {
	st := Stats{ByType: make(map[doctemplate.Type]int)}
	for _, t := range doctemplate.Types() {
		st.ByType[t] = 0
	}
	for _, d := range docs {
		st.Total++
		switch d.Status {
		case StatusDraft:
			st.Drafts++
		case StatusPublished:
			st.Published++
		case StatusArchived:
			st.Archived++
		}
		if d.TemplateID == nil {
			continue
		}
		if t, ok := types[*d.TemplateID]; ok {
			st.ByType[t]++
		}
	}
	return st
}
