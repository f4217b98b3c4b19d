package doctemplate

import (
	_ "embed"
	"fmt"

	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/docuforge/docuforge/pkg/logger"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Templates []Spec `yaml:"templates"`
}

// Builtin returns the templates shipped with the binary.
func Builtin() ([]Spec, error) {
	return ParseCatalog(builtinCatalog)
}

// ParseCatalog decodes a YAML catalog and lints every template. A template
// with duplicate or reserved field ids, an unknown type or a body that does
// not compile fails the whole load.
func ParseCatalog(data []byte) ([]Spec, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seen := map[string]bool{}
	for i := range f.Templates {
		s := &f.Templates[i]
		if s.ID == "" {
			return nil, fmt.Errorf("catalog entry #%d: missing id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("catalog entry %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
		warnings, err := Lint(s)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", s.ID, err)
		}
		for _, w := range warnings {
			logger.Warnf("template %s: %s", s.ID, w)
		}
	}
	return f.Templates, nil
}

// Lint checks a template for hard errors and returns soft warnings about
// fields and placeholders that do not line up.
func Lint(s *Spec) ([]string, error) {
	if !s.Type.Valid() {
		return nil, fmt.Errorf("unknown type %q", s.Type)
	}
	if err := form.CheckFields(s.Fields); err != nil {
		return nil, err
	}
	reserved := map[string]bool{render.NowKey: true}
	for _, h := range render.HelperNames() {
		reserved[h] = true
	}
	for _, f := range s.Fields {
		if reserved[f.ID] {
			return nil, fmt.Errorf("field %q: id is reserved by the renderer", f.ID)
		}
	}
	ids, err := render.Placeholders(s.Body)
	if err != nil {
		return nil, err
	}

	declared := map[string]bool{}
	for _, f := range s.Fields {
		declared[f.ID] = true
	}
	used := map[string]bool{}
	var warnings []string
	for _, id := range ids {
		used[id] = true
		if !declared[id] && id != render.NowKey {
			warnings = append(warnings, fmt.Sprintf("placeholder %q has no field", id))
		}
	}
	for _, f := range s.Fields {
		if !used[f.ID] {
			warnings = append(warnings, fmt.Sprintf("field %q is not referenced by the body", f.ID))
		}
	}
	return warnings, nil
}
