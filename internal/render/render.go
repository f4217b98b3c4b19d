package render

import (
	"html"
	"strings"
	"time"

	"github.com/docuforge/docuforge/internal/form"
)

// NowKey is injected into every render with the render timestamp.
const NowKey = "now"

// NowLayout matches JavaScript's Date.toISOString output.
const NowLayout = "2006-01-02T15:04:05.000Z"

// Renderer merges values into template bodies. The zero value is not usable;
// build one with New.
type Renderer struct {
	clock  func() time.Time
	escape bool
}

type Option func(*Renderer)

// WithClock overrides the time source used for the injected "now" value.
func WithClock(clock func() time.Time) Option {
	return func(r *Renderer) { r.clock = clock }
}

// WithEscape toggles HTML escaping of substituted values. Enabled by default.
func WithEscape(on bool) Option {
	return func(r *Renderer) { r.escape = on }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{clock: time.Now, escape: true}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render compiles body and substitutes values. Missing keys render as the
// empty string (helpers apply their own empty-input rules). Field ids listed in
// raw are inserted without escaping. A malformed body yields a *CompileError
// and no output.
func (r *Renderer) Render(body string, values form.ValueMap, raw map[string]bool) (string, error) {
	t, err := Compile(body)
	if err != nil {
		return "", err
	}
	return r.Execute(t, values, raw), nil
}

// Execute renders an already compiled template.
func (r *Renderer) Execute(t *Template, values form.ValueMap, raw map[string]bool) string {
	now := form.Text(r.clock().UTC().Format(NowLayout))
	var b strings.Builder
	for _, s := range t.segments {
		if s.tok == nil {
			b.WriteString(s.text)
			continue
		}
		var (
			v       form.Value
			present bool
		)
		switch {
		case s.tok.ident == NowKey:
			v, present = now, true
		case s.tok.ident != "":
			v, present = values[s.tok.ident]
		}
		out := s.tok.helper.apply(v, present)
		if r.escape && !raw[s.tok.ident] {
			out = html.EscapeString(out)
		}
		b.WriteString(out)
	}
	return b.String()
}
