package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	tplrepo "github.com/docuforge/docuforge/internal/doctemplate/repository"
	tplservice "github.com/docuforge/docuforge/internal/doctemplate/service"
	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/document/repository"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan15 = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

type fakeObjects struct {
	puts map[string][]byte
	fail error
}

func (f *fakeObjects) Put(_ context.Context, key string, body []byte, _ string) error {
	if f.fail != nil {
		return f.fail
	}
	f.puts[key] = body
	return nil
}

func (f *fakeObjects) URL(_ context.Context, key string) (string, error) {
	return "https://files.example/" + key + "?sig=1", nil
}

type fixture struct {
	svc      *Service
	repo     *repository.MemoryRepo
	registry *tplservice.Registry
	objects  *fakeObjects
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	specs, err := doctemplate.Builtin()
	require.NoError(t, err)
	clock := func() time.Time { return jan15 }
	reg := tplservice.NewRegistry(tplrepo.NewMemoryRepo(), render.New(render.WithClock(clock)))
	require.NoError(t, reg.Seed(context.Background(), specs))
	repo := repository.NewMemoryRepo()
	objects := &fakeObjects{puts: map[string][]byte{}}
	svc := New(repo, reg, WithObjectStore(objects), WithClock(clock))
	return &fixture{svc: svc, repo: repo, registry: reg, objects: objects}
}

func cgvData(name string) map[string]string {
	return map[string]string{
		"entreprise_nom":     name,
		"entreprise_adresse": "1 rue de la Paix, Paris",
		"siret":              "12345678901234",
		"email":              "contact@example.fr",
		"telephone":          "0102030405",
	}
}

func TestCreate_RendersAndStartsAsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Data: cgvData("Dupont")})
	require.NoError(t, err)
	assert.Equal(t, document.StatusDraft, d.Status)
	assert.Equal(t, "Conditions Générales de Vente - 15/01/2024", d.Title)
	require.NotNil(t, d.TemplateID)
	assert.Equal(t, "cgv", *d.TemplateID)

	spec, err := f.registry.GetByID(ctx, "cgv")
	require.NoError(t, err)
	want, err := spec.Render(render.New(render.WithClock(func() time.Time { return jan15 })), spec.Values(cgvData("Dupont")))
	require.NoError(t, err)
	assert.Equal(t, want, d.Content)

	stored, err := f.svc.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Content, stored.Content)
	assert.Equal(t, "Dupont", stored.Data["entreprise_nom"].Raw())
}

func TestCreate_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "missing"})
	assert.ErrorIs(t, err, doctemplate.ErrNotFound)

	data := cgvData("")
	data["email"] = "nope"
	_, err = f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Data: data})
	var verrs form.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, form.MsgRequired, verrs["entreprise_nom"])
	assert.Equal(t, form.MsgInvalidEmail, verrs["email"])

	list, err := f.svc.List(ctx, "u1", ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdate_DataReRendersTitleDoesNot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Title: "Mes CGV", Data: cgvData("Dupont")})
	require.NoError(t, err)

	title := "CGV 2024"
	upd, err := f.svc.Update(ctx, "u1", d.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "CGV 2024", upd.Title)
	assert.Equal(t, d.Content, upd.Content)

	upd, err = f.svc.Update(ctx, "u1", d.ID, UpdateInput{Data: cgvData("Martin")})
	require.NoError(t, err)
	assert.NotEqual(t, d.Content, upd.Content)
	assert.Contains(t, upd.Content, "MARTIN")
	assert.NotContains(t, upd.Content, "DUPONT")
	assert.Equal(t, "CGV 2024", upd.Title)

	bad := cgvData("Martin")
	bad["siret"] = "123"
	_, err = f.svc.Update(ctx, "u1", d.ID, UpdateInput{Data: bad})
	var verrs form.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "siret")
}

func TestUpdate_BrokenTemplateRelationKeepsContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gone := "deleted-template"
	d := &document.Document{OwnerID: "u1", TemplateID: &gone, Title: "Ancien", Content: "<p>figé</p>", Status: document.StatusDraft}
	require.NoError(t, f.repo.Create(ctx, d))

	upd, err := f.svc.Update(ctx, "u1", d.ID, UpdateInput{Data: map[string]string{"a": "b"}})
	require.NoError(t, err)
	assert.Equal(t, "<p>figé</p>", upd.Content)
	assert.Equal(t, "b", upd.Data["a"].Raw())
}

func TestUpdateStatus_AnyTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Data: cgvData("Dupont")})
	require.NoError(t, err)

	for _, st := range []document.Status{document.StatusArchived, document.StatusDraft, document.StatusPublished, document.StatusArchived} {
		upd, err := f.svc.UpdateStatus(ctx, "u1", d.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, upd.Status)
		assert.Equal(t, d.Content, upd.Content)
	}

	_, err = f.svc.UpdateStatus(ctx, "u1", d.ID, "trashed")
	assert.ErrorIs(t, err, document.ErrInvalidStatus)
	_, err = f.svc.UpdateStatus(ctx, "u2", d.ID, document.StatusDraft)
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestListByTypeSearchAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Title: "CGV Dupont", Data: cgvData("Dupont")})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Title: "CGV Martin", Data: cgvData("Martin")})
	require.NoError(t, err)
	orphan := "removed"
	require.NoError(t, f.repo.Create(ctx, &document.Document{OwnerID: "u1", TemplateID: &orphan, Title: "Vieux devis", Status: document.StatusPublished}))
	_, err = f.svc.Create(ctx, "u2", CreateInput{TemplateID: "cgv", Data: cgvData("Autre")})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, "u1", a.ID, document.StatusDraft)
	require.NoError(t, err)

	cgv, err := f.svc.List(ctx, "u1", ListQuery{Type: doctemplate.TypeCGV})
	require.NoError(t, err)
	assert.Len(t, cgv, 2)

	facture, err := f.svc.List(ctx, "u1", ListQuery{Type: doctemplate.TypeFacture})
	require.NoError(t, err)
	assert.Empty(t, facture)

	_, err = f.svc.List(ctx, "u1", ListQuery{Status: "bogus"})
	assert.ErrorIs(t, err, document.ErrInvalidStatus)

	hits, err := f.svc.Search(ctx, "u1", "martin")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "CGV Martin", hits[0].Title)

	st, err := f.svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Drafts)
	assert.Equal(t, 1, st.Published)
	assert.Equal(t, 0, st.Archived)
	assert.Equal(t, 2, st.ByType[doctemplate.TypeCGV])
	assert.Equal(t, 0, st.ByType[doctemplate.TypeDevis])
}

func TestDeleteAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Data: cgvData("Dupont")})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Data: cgvData("Martin")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "u2", d.ID), document.ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, "u1", d.ID))

	n, err := f.svc.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPrintAndExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d, err := f.svc.Create(ctx, "u1", CreateInput{TemplateID: "cgv", Data: cgvData("Dupont")})
	require.NoError(t, err)

	page, err := f.svc.PrintPage(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Contains(t, page, "window.print()")
	assert.Contains(t, page, "CONDITIONS GÉNÉRALES DE VENTE")

	exp, err := f.svc.Export(ctx, "u1", d.ID)
	require.NoError(t, err)
	key := "documents/u1/" + d.ID + ".html"
	require.Contains(t, f.objects.puts, key)
	assert.Equal(t, page, string(f.objects.puts[key]))
	require.NotNil(t, exp.FileURL)
	assert.Equal(t, "https://files.example/"+key+"?sig=1", *exp.FileURL)

	f.objects.fail = errors.New("bucket gone")
	_, err = f.svc.Export(ctx, "u1", d.ID)
	assert.ErrorIs(t, err, document.ErrStore)

	noStore := New(f.repo, f.registry)
	_, err = noStore.Export(ctx, "u1", d.ID)
	assert.ErrorIs(t, err, document.ErrExportDisabled)
}
