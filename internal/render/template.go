// Package render merges user values into document template bodies.
//
// A body is plain text (usually HTML) containing placeholder tokens:
//
//	{{field_id}}               value of field_id
//	{{formatDate date_debut}}  helper applied to a value
//
// Bodies are stored as text and compiled on every render; nothing is cached.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// ErrCompile matches any *CompileError via errors.Is.
var ErrCompile = errors.New("template compile error")

// CompileError reports malformed token syntax in a template body. Offset is
// the byte offset of the offending token.
type CompileError struct {
	Offset int
	Reason string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("template compile error at offset %d: %s", e.Offset, e.Reason)
}

func (e *CompileError) Is(target error) bool { return target == ErrCompile }

type token struct {
	helper helper
	ident  string // empty when a helper is called without argument
}

type segment struct {
	text string
	tok  *token
}

// Template is a compiled body.
type Template struct {
	segments []segment
}

// Compile parses body into literal and token segments.
func Compile(body string) (*Template, error) {
	t := &Template{}
	pos := 0
	for {
		i := strings.Index(body[pos:], openDelim)
		if i < 0 {
			t.appendText(body[pos:])
			return t, nil
		}
		start := pos + i
		t.appendText(body[pos:start])
		j := strings.Index(body[start+len(openDelim):], closeDelim)
		if j < 0 {
			return nil, &CompileError{Offset: start, Reason: "unterminated placeholder"}
		}
		inner := body[start+len(openDelim) : start+len(openDelim)+j]
		tok, err := parseToken(inner, start)
		if err != nil {
			return nil, err
		}
		t.segments = append(t.segments, segment{tok: tok})
		pos = start + len(openDelim) + j + len(closeDelim)
	}
}

func (t *Template) appendText(s string) {
	if s != "" {
		t.segments = append(t.segments, segment{text: s})
	}
}

func parseToken(inner string, offset int) (*token, error) {
	parts := strings.Fields(inner)
	switch len(parts) {
	case 0:
		return nil, &CompileError{Offset: offset, Reason: "empty placeholder"}
	case 1:
		if h, ok := lookupHelper(parts[0]); ok {
			return &token{helper: h}, nil
		}
		if !identRe.MatchString(parts[0]) {
			return nil, &CompileError{Offset: offset, Reason: fmt.Sprintf("invalid identifier %q", parts[0])}
		}
		return &token{ident: parts[0]}, nil
	case 2:
		h, ok := lookupHelper(parts[0])
		if !ok {
			return nil, &CompileError{Offset: offset, Reason: fmt.Sprintf("unknown helper %q", parts[0])}
		}
		if !identRe.MatchString(parts[1]) {
			return nil, &CompileError{Offset: offset, Reason: fmt.Sprintf("invalid identifier %q", parts[1])}
		}
		return &token{helper: h, ident: parts[1]}, nil
	default:
		return nil, &CompileError{Offset: offset, Reason: fmt.Sprintf("too many arguments in %q", strings.TrimSpace(inner))}
	}
}

// Identifiers returns the distinct identifiers referenced by the template, in
// order of first appearance.
func (t *Template) Identifiers() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range t.segments {
		if s.tok == nil || s.tok.ident == "" || seen[s.tok.ident] {
			continue
		}
		seen[s.tok.ident] = true
		out = append(out, s.tok.ident)
	}
	return out
}

// Placeholders compiles body and lists the identifiers it references.
func Placeholders(body string) ([]string, error) {
	t, err := Compile(body)
	if err != nil {
		return nil, err
	}
	return t.Identifiers(), nil
}
