package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// steppingClock advances one minute per call so creation order is observable.
func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{OwnerID: "u1", Title: "Contrat", Content: "hello", Status: document.StatusDraft,
		Data: form.ValueMap{"a": form.Text("1")}}
	require.NoError(t, r.Create(ctx, d))
	require.NotEmpty(t, d.ID)

	got, err := r.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	got.Data["a"] = form.Text("mutated")

	again, err := r.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", again.Data["a"].Raw())

	status := document.StatusArchived
	upd, err := r.Update(ctx, "u1", d.ID, document.Patch{Title: strPtr("Nouveau"), Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Nouveau", upd.Title)
	assert.Equal(t, document.StatusArchived, upd.Status)
	assert.Equal(t, "hello", upd.Content)

	require.NoError(t, r.Delete(ctx, "u1", d.ID))
	_, err = r.Get(ctx, "u1", d.ID)
	assert.ErrorIs(t, err, document.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "u1", d.ID), document.ErrNotFound)
}

func TestMemoryRepo_UpdateDoesNotKeepCallerState(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	tpl := "cgv"
	d := &document.Document{OwnerID: "u1", TemplateID: &tpl, Title: "CGV", Status: document.StatusDraft}
	require.NoError(t, r.Create(ctx, d))
	tpl = "devis"

	data := form.ValueMap{"nom": form.Text("Dupont")}
	url := "https://files.example/a.html"
	_, err := r.Update(ctx, "u1", d.ID, document.Patch{Data: data, FileURL: &url})
	require.NoError(t, err)
	data["nom"] = form.Text("Martin")
	url = "https://evil.example"

	got, err := r.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dupont", got.Data["nom"].Raw())
	require.NotNil(t, got.FileURL)
	assert.Equal(t, "https://files.example/a.html", *got.FileURL)
	require.NotNil(t, got.TemplateID)
	assert.Equal(t, "cgv", *got.TemplateID)

	*got.FileURL = "changed"
	again, err := r.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/a.html", *again.FileURL)
}

func TestMemoryRepo_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{OwnerID: "alice", Title: "secret"}
	require.NoError(t, r.Create(ctx, d))

	_, err := r.Get(ctx, "bob", d.ID)
	assert.ErrorIs(t, err, document.ErrNotFound)
	_, err = r.Update(ctx, "bob", d.ID, document.Patch{Title: strPtr("x")})
	assert.ErrorIs(t, err, document.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "bob", d.ID), document.ErrNotFound)

	list, err := r.List(ctx, "bob", document.Filters{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryRepo_ListFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo().WithClock(steppingClock())
	tplA, tplB := strPtr("tpl-a"), strPtr("tpl-b")
	for i := 0; i < 12; i++ {
		d := &document.Document{OwnerID: "u", Title: fmt.Sprintf("doc %02d", i), Content: "<p>corps</p>", Status: document.StatusDraft, TemplateID: tplA}
		if i%3 == 0 {
			d.Status = document.StatusPublished
			d.TemplateID = tplB
		}
		if i == 5 {
			d.Content = "<p>Facture ACME</p>"
		}
		require.NoError(t, r.Create(ctx, d))
	}

	all, err := r.List(ctx, "u", document.Filters{})
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, "doc 11", all[0].Title)
	assert.Equal(t, "doc 00", all[11].Title)

	pub, err := r.List(ctx, "u", document.Filters{Status: document.StatusPublished})
	require.NoError(t, err)
	assert.Len(t, pub, 4)

	byTpl, err := r.List(ctx, "u", document.Filters{TemplateIDs: []string{"tpl-b"}})
	require.NoError(t, err)
	assert.Len(t, byTpl, 4)

	none, err := r.List(ctx, "u", document.Filters{TemplateIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	hit, err := r.List(ctx, "u", document.Filters{Search: "acme"})
	require.NoError(t, err)
	require.Len(t, hit, 1)
	assert.Equal(t, "doc 05", hit[0].Title)

	hit, err = r.List(ctx, "u", document.Filters{Search: "DOC 1"})
	require.NoError(t, err)
	assert.Len(t, hit, 2)

	page, err := r.List(ctx, "u", document.Filters{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = r.List(ctx, "u", document.Filters{Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, document.DefaultPageSize)
	assert.Equal(t, "doc 10", page[0].Title)

	page, err = r.List(ctx, "u", document.Filters{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryRepo_DeleteByOwner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.Create(ctx, &document.Document{OwnerID: "a"}))
	require.NoError(t, r.Create(ctx, &document.Document{OwnerID: "a"}))
	require.NoError(t, r.Create(ctx, &document.Document{OwnerID: "b"}))

	n, err := r.DeleteByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	left, err := r.List(ctx, "b", document.Filters{})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
