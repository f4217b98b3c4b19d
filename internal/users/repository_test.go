package users

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/docuforge/docuforge/internal/database"
	"github.com/docuforge/docuforge/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseRepository(t *testing.T, r Repository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	email := "repo-" + uuid.NewString() + "@example.fr"
	u := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Create(ctx, u))
	t.Cleanup(func() { _ = r.Delete(ctx, u.ID) })

	dup := *u
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, r.Create(ctx, &dup), ErrEmailTaken)

	got, err := r.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	name := "Jeanne"
	upd, err := r.UpdateProfile(ctx, u.ID, Profile{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jeanne", upd.FullName)
	assert.Equal(t, "h", upd.PasswordHash)

	require.NoError(t, r.Delete(ctx, u.ID))
	_, err = r.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, u.ID), ErrNotFound)
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()
	m, err := database.ConnectMongo(ctx, uri, "docuforge_test", 5*time.Second)
	require.NoError(t, err)
	defer m.Close()
	col := m.DB.Collection("users_" + uuid.NewString())
	defer col.Drop(ctx)

	r, err := NewMongoRepository(ctx, col)
	require.NoError(t, err)
	exerciseRepository(t, r)
}

func TestGormRepository(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := database.OpenPostgres(dsn)
	require.NoError(t, err)
	r, err := NewGormRepository(db)
	require.NoError(t, err)
	exerciseRepository(t, r)
}
