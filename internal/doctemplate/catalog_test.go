package doctemplate

import (
	"testing"
	"time"

	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_LoadsAllTypes(t *testing.T) {
	specs, err := Builtin()
	require.NoError(t, err)
	require.Len(t, specs, 4)

	byType := map[Type]Spec{}
	for _, s := range specs {
		byType[s.Type] = s
		assert.True(t, s.Active, s.ID)
		warnings, err := Lint(&s)
		require.NoError(t, err)
		assert.Empty(t, warnings, s.ID)
	}
	for _, typ := range []Type{TypeContratPrestation, TypeCGV, TypeDevis, TypeFacture} {
		assert.Contains(t, byType, typ)
	}
}

func TestBuiltin_ContractRenders(t *testing.T) {
	specs, err := Builtin()
	require.NoError(t, err)
	var contrat Spec
	for _, s := range specs {
		if s.ID == "contrat-prestation" {
			contrat = s
		}
	}
	require.Equal(t, "Contrat de Prestation", contrat.Name)

	values := contrat.Values(map[string]string{
		"client_nom": "ACME", "montant": "1234.5", "date_debut": "2024-01-15", "date_fin": "2024-06-30",
	})
	r := render.New(render.WithClock(func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }))
	out, err := contrat.Render(r, values)
	require.NoError(t, err)
	assert.Contains(t, out, "du 15 janvier 2024 au 30 juin 2024")
	assert.Contains(t, out, "1 234,50 € HT")
	assert.Contains(t, out, "le 1 février 2024")
	assert.NotContains(t, out, "{{")
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"duplicate field": `
templates:
  - id: a
    type: cgv
    fields: [{id: x, type: text}, {id: x, type: text}]
    template: "{{x}}"`,
		"bad body": `
templates:
  - id: a
    type: cgv
    template: "{{x"`,
		"unknown type": `
templates:
  - id: a
    type: memo
    template: ""`,
		"duplicate template": `
templates:
  - {id: a, type: cgv, template: ""}
  - {id: a, type: cgv, template: ""}`,
	}
	for name, doc := range cases {
		_, err := ParseCatalog([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLint_Warnings(t *testing.T) {
	s := &Spec{
		Type:   TypeAutre,
		Fields: []form.FieldSpec{{ID: "used", Kind: form.KindText}, {ID: "unused", Kind: form.KindText}},
		Body:   "{{used}} {{ghost}} {{formatDate now}}",
	}
	warnings, err := Lint(s)
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "ghost")
	assert.Contains(t, warnings[1], "unused")
}

func TestLint_RejectsFieldsShadowedByHelpers(t *testing.T) {
	for _, id := range []string{"upper", "lower", "formatDate", "formatCurrency", "now"} {
		s := &Spec{
			Type:   TypeAutre,
			Fields: []form.FieldSpec{{ID: id, Kind: form.KindText}},
			Body:   "<p>{{" + id + "}}</p>",
		}
		_, err := Lint(s)
		require.Error(t, err, id)
		assert.Contains(t, err.Error(), "reserved")
	}

	_, err := ParseCatalog([]byte(`
templates:
  - id: a
    type: cgv
    fields: [{id: upper, type: text}]
    template: "{{upper}}"`))
	assert.Error(t, err)
}
