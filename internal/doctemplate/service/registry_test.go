package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/doctemplate/repository"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	specs, err := doctemplate.Builtin()
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC) }
	reg := NewRegistry(repository.NewMemoryRepo(), render.New(render.WithClock(clock)))
	require.NoError(t, reg.Seed(context.Background(), specs))
	return reg
}

func TestRegistry_ListAndLookup(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	list, err := reg.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Name, list[i].Name)
	}

	s, err := reg.GetByID(ctx, "devis")
	require.NoError(t, err)
	assert.Equal(t, doctemplate.TypeDevis, s.Type)

	_, err = reg.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, doctemplate.ErrNotFound)
}

func TestRegistry_InactiveTemplatesAreHidden(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	off := &doctemplate.Spec{ID: "old-cgv", Name: "Old", Type: doctemplate.TypeAutre, Body: "x"}
	require.NoError(t, reg.Seed(ctx, []doctemplate.Spec{*off}))

	_, err := reg.GetByID(ctx, "old-cgv")
	assert.ErrorIs(t, err, doctemplate.ErrNotFound)
	_, err = reg.GetByType(ctx, doctemplate.TypeAutre)
	assert.ErrorIs(t, err, doctemplate.ErrNotFound)

	s, err := reg.Lookup(ctx, "old-cgv")
	require.NoError(t, err)
	assert.Equal(t, "Old", s.Name)

	ids, err := reg.IDsByType(ctx, doctemplate.TypeAutre)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-cgv"}, ids)

	idx, err := reg.TypeIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, doctemplate.TypeAutre, idx["old-cgv"])
	assert.Equal(t, doctemplate.TypeCGV, idx["cgv"])
}

func TestRegistry_GetByTypeTieBreak(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	later := time.Now().Add(time.Hour)
	require.NoError(t, reg.Seed(ctx, []doctemplate.Spec{
		{ID: "cgv-z", Name: "CGV Z", Type: doctemplate.TypeCGV, Active: true, UpdatedAt: later},
		{ID: "cgv-b", Name: "CGV B", Type: doctemplate.TypeCGV, Active: true, UpdatedAt: later},
	}))

	s, err := reg.GetByType(ctx, doctemplate.TypeCGV)
	require.NoError(t, err)
	assert.Equal(t, "cgv-b", s.ID)
}

func TestRegistry_Preview(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	_, err := reg.Preview(ctx, "cgv", map[string]string{"email": "bad"})
	var verrs form.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, form.MsgRequired, verrs["entreprise_nom"])
	assert.Equal(t, form.MsgInvalidEmail, verrs["email"])

	html, err := reg.Preview(ctx, "cgv", map[string]string{
		"entreprise_nom":     "Dupont & Fils",
		"entreprise_adresse": "1 rue de Paris",
		"siret":              "12345678901234",
		"email":              "contact@dupont.fr",
		"telephone":          "0102030405",
		"tva":                "20%",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>DUPONT &amp; FILS</strong>")
	assert.Contains(t, html, "La TVA applicable est de 20%.")
}

func TestRegistry_RenderCompileError(t *testing.T) {
	reg := newRegistry(t)
	spec := &doctemplate.Spec{ID: "broken", Type: doctemplate.TypeAutre, Body: "hello {{name"}
	out, err := reg.Render(spec, form.ValueMap{})
	assert.Empty(t, out)
	assert.ErrorIs(t, err, render.ErrCompile)
}
