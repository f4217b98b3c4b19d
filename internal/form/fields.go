package form

// Kind is the input kind of a template field.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindNumber   Kind = "number"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindDate     Kind = "date"
)

// Valid reports whether k is one of the known input kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindEmail, KindNumber, KindTextarea, KindSelect, KindDate:
		return true
	}
	return false
}

// Constraints holds the optional per-field checks. Min/Max bound the numeric
// value for number fields and the length for text fields.
type Constraints struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty" bson:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty" bson:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty" bson:"pattern,omitempty"`
}

// FieldSpec describes one input slot of a template. ID matches a {{placeholder}}
// in the template body.
type FieldSpec struct {
	ID          string       `json:"id" yaml:"id" bson:"id"`
	Label       string       `json:"label" yaml:"label" bson:"label"`
	Kind        Kind         `json:"type" yaml:"type" bson:"type"`
	Required    bool         `json:"required" yaml:"required" bson:"required"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty" bson:"placeholder,omitempty"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty" bson:"options,omitempty"`
	Validation  *Constraints `json:"validation,omitempty" yaml:"validation,omitempty" bson:"validation,omitempty"`
	// RawHTML opts the field out of HTML escaping when rendered.
	RawHTML bool `json:"raw_html,omitempty" yaml:"raw_html,omitempty" bson:"rawHtml,omitempty"`
}

// Float returns a pointer to v, handy when building Constraints literals.
func Float(v float64) *float64 { return &v }

// RawFields returns the set of field ids that opted into raw HTML insertion.
func RawFields(fields []FieldSpec) map[string]bool {
	out := map[string]bool{}
	for _, f := range fields {
		if f.RawHTML {
			out[f.ID] = true
		}
	}
	return out
}
