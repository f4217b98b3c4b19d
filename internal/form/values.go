package form

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueNumber
	ValueDate
)

// Value is a user-entered field value. The raw text is always kept so that a
// stored snapshot round-trips exactly; the typed part is filled when the raw
// text parses for the field's kind.
type Value struct {
	kind ValueKind
	raw  string
	num  float64
	date time.Time
	ok   bool
}

// Text builds a text value.
func Text(s string) Value { return Value{kind: ValueText, raw: s, ok: true} }

// Number builds a number value from raw text. Both "." and "," are accepted
// as decimal separator.
func Number(raw string) Value {
	v := Value{kind: ValueNumber, raw: raw}
	v.num, v.ok = ParseNumber(raw)
	return v
}

// Date builds a date value from raw text (YYYY-MM-DD or RFC3339).
func Date(raw string) Value {
	v := Value{kind: ValueDate, raw: raw}
	v.date, v.ok = ParseDate(raw)
	return v
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Raw() string     { return v.raw }
func (v Value) IsEmpty() bool   { return strings.TrimSpace(v.raw) == "" }

// Float returns the numeric value and whether the raw text parsed as a number.
func (v Value) Float() (float64, bool) {
	if v.kind == ValueNumber {
		return v.num, v.ok
	}
	return ParseNumber(v.raw)
}

// Time returns the date value and whether the raw text parsed as a date.
func (v Value) Time() (time.Time, bool) {
	if v.kind == ValueDate {
		return v.date, v.ok
	}
	return ParseDate(v.raw)
}

// Valid reports whether the raw text parsed for the value's kind.
func (v Value) Valid() bool { return v.ok }

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.raw) }

func (v *Value) UnmarshalJSON(b []byte) error {
	var decoded interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	*v = Text(Stringify(decoded))
	return nil
}

// ParseNumber parses a decimal number, tolerating surrounding spaces and a
// comma decimal separator.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	for _, sp := range []string{" ", "\u00a0", "\u202f"} {
		s = strings.ReplaceAll(s, sp, "")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ValueMap maps field ids to values.
type ValueMap map[string]Value

// Raw returns the raw text of every value.
func (m ValueMap) Raw() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.Raw()
	}
	return out
}

// Retype re-applies the kinds declared by fields, e.g. after a snapshot was
// decoded from storage as plain text.
func (m ValueMap) Retype(fields []FieldSpec) ValueMap {
	return Parse(fields, m.Raw())
}

// Parse converts a raw bag of strings into typed values. Keys without a
// FieldSpec are kept as text.
func Parse(fields []FieldSpec, raw map[string]string) ValueMap {
	kinds := make(map[string]Kind, len(fields))
	for _, f := range fields {
		kinds[f.ID] = f.Kind
	}
	out := make(ValueMap, len(raw))
	for k, s := range raw {
		switch kinds[k] {
		case KindNumber:
			out[k] = Number(s)
		case KindDate:
			out[k] = Date(s)
		default:
			out[k] = Text(s)
		}
	}
	return out
}

// Stringify renders a decoded JSON scalar as the text a user would have typed.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// StringifyAll applies Stringify to every entry of a decoded JSON object.
func StringifyAll(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = Stringify(v)
	}
	return out
}
