package doctemplate

import (
	"errors"
	"time"

	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
)

var (
	ErrNotFound = errors.New("template not found")
	// ErrStore wraps failures of the backing template store.
	ErrStore = errors.New("template store failure")
)

// Type is the kind of legal/business document a template produces.
type Type string

const (
	TypeContratPrestation Type = "contrat-prestation"
	TypeCGV               Type = "cgv"
	TypeDevis             Type = "devis"
	TypeFacture           Type = "facture"
	TypeAutre             Type = "autre"
)

// Types lists every known template type, in display order.
func Types() []Type {
	return []Type{TypeContratPrestation, TypeCGV, TypeDevis, TypeFacture, TypeAutre}
}

func (t Type) Valid() bool {
	for _, k := range Types() {
		if k == t {
			return true
		}
	}
	return false
}

// Spec is a fill-in-the-blank document template. Body holds the HTML with
// {{field_id}} placeholders and is stored as plain text.
type Spec struct {
	ID          string           `json:"id" yaml:"id" bson:"_id"`
	Name        string           `json:"name" yaml:"name" bson:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Category    string           `json:"category" yaml:"category" bson:"category"`
	Type        Type             `json:"type" yaml:"type" bson:"type"`
	Fields      []form.FieldSpec `json:"fields" yaml:"fields" bson:"fields"`
	Body        string           `json:"template" yaml:"template" bson:"template"`
	Active      bool             `json:"is_active" yaml:"active" bson:"isActive"`
	CreatedAt   time.Time        `json:"created_at" yaml:"-" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"-" bson:"updatedAt"`
}

// Render merges values into the template body, honouring per-field raw HTML
// opt-ins.
func (s *Spec) Render(r *render.Renderer, values form.ValueMap) (string, error) {
	return r.Render(s.Body, values, form.RawFields(s.Fields))
}

// Values types a raw value bag according to the template's fields.
func (s *Spec) Values(raw map[string]string) form.ValueMap {
	return form.Parse(s.Fields, raw)
}
