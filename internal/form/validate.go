package form

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MsgRequired     = "field is required"
	MsgInvalidEmail = "invalid email format"
	MsgNotNumber    = "must be a number"
	MsgInvalidDate  = "invalid date"
	MsgInvalidOpt   = "invalid option"
	MsgInvalidFmt   = "invalid format"
	MsgBadPattern   = "invalid validation pattern"

	// MinPasswordLength is the shortest password accepted at sign-up.
	MinPasswordLength = 6
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidEmail = errors.New(MsgInvalidEmail)
)

// ValidationErrors maps a field id to the message describing why its value
// was rejected. It is returned as an error when non-empty.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+e[id])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Result is the outcome of Validate. Every field is evaluated; all errors are
// reported together.
type Result struct {
	Valid  bool             `json:"valid"`
	Errors ValidationErrors `json:"errors"`
}

// Err returns the errors as an error value, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return r.Errors
}

// Validate checks values against fields in declaration order. A field gets at
// most one message: the first rule it fails.
func Validate(fields []FieldSpec, values ValueMap) Result {
	errs := ValidationErrors{}
	for _, f := range fields {
		v, ok := values[f.ID]
		if !ok {
			v = Text("")
		}
		if msg := checkField(f, v); msg != "" {
			errs[f.ID] = msg
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkField(f FieldSpec, v Value) string {
	if v.IsEmpty() {
		if f.Required {
			return MsgRequired
		}
		return ""
	}
	raw := strings.TrimSpace(v.Raw())
	c := f.Validation
	if c == nil {
		c = &Constraints{}
	}

	switch f.Kind {
	case KindEmail:
		if !emailRe.MatchString(raw) {
			return MsgInvalidEmail
		}
	case KindNumber:
		n, ok := v.Float()
		if !ok {
			return MsgNotNumber
		}
		if c.Min != nil && n < *c.Min {
			return "must be at least " + formatBound(*c.Min)
		}
		if c.Max != nil && n > *c.Max {
			return "must be at most " + formatBound(*c.Max)
		}
	case KindDate:
		if _, ok := v.Time(); !ok {
			return MsgInvalidDate
		}
	case KindSelect:
		if len(f.Options) > 0 && !contains(f.Options, raw) {
			return MsgInvalidOpt
		}
	case KindText, KindTextarea:
		n := float64(utf8.RuneCountInString(raw))
		if c.Min != nil && n < *c.Min {
			return "must be at least " + formatBound(*c.Min) + " characters"
		}
		if c.Max != nil && n > *c.Max {
			return "must be at most " + formatBound(*c.Max) + " characters"
		}
	}

	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return MsgBadPattern
		}
		if !re.MatchString(raw) {
			return MsgInvalidFmt
		}
	}
	return ""
}

func formatBound(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}

// ValidateEmail checks an address with the same pattern used for email fields.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum password length used by sign-up.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// CheckFields verifies that field ids are non-empty, unique and of a known kind.
func CheckFields(fields []FieldSpec) error {
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.ID == "" {
			return fmt.Errorf("field #%d: empty id", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("field %q: duplicate id", f.ID)
		}
		seen[f.ID] = true
		if !f.Kind.Valid() {
			return fmt.Errorf("field %q: unknown type %q", f.ID, f.Kind)
		}
	}
	return nil
}
