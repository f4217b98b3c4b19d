package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*mr.Miniredis, *redis.Client) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, redis.NewClient(&redis.Options{Addr: m.Addr()})
}

func TestRedisRepository_CreateGetDelete(t *testing.T) {
	_, client := newRedis(t)
	repo := NewRedisRepository(client, "test:session:")
	ctx := context.Background()

	s := &Session{
		RefreshToken: "r1",
		UserID:       "u-1",
		Email:        "a@example.fr",
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "a@example.fr", got.Email)

	require.NoError(t, repo.DeleteByRefresh(ctx, "r1"))
	_, err = repo.GetByRefresh(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	m, client := newRedis(t)
	repo := NewRedisRepository(client, "")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Session{
		RefreshToken: "r2",
		UserID:       "u-2",
		ExpiresAt:    time.Now().UTC().Add(5 * time.Second),
	}))
	_, err := repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)

	m.FastForward(10 * time.Second)
	_, err = repo.GetByRefresh(ctx, "r2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository_DeleteByUser(t *testing.T) {
	_, client := newRedis(t)
	repo := NewRedisRepository(client, "")
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Minute)
	for _, s := range []Session{
		{RefreshToken: "a", UserID: "u1", ExpiresAt: exp},
		{RefreshToken: "b", UserID: "u1", ExpiresAt: exp},
		{RefreshToken: "c", UserID: "u2", ExpiresAt: exp},
	} {
		s := s
		require.NoError(t, repo.Create(ctx, &s))
	}

	require.NoError(t, repo.DeleteByUser(ctx, "u1"))
	_, err := repo.GetByRefresh(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByRefresh(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByRefresh(ctx, "c")
	assert.NoError(t, err)
}

func TestBlacklist(t *testing.T) {
	m, client := newRedis(t)
	bl := NewBlacklist(client)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Add(ctx, "tok", 30*time.Second))
	revoked, err = bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	m.FastForward(time.Minute)
	revoked, err = bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklist_WithoutRedisIsNoop(t *testing.T) {
	bl := NewBlacklist(nil)
	require.NoError(t, bl.Add(context.Background(), "tok", time.Minute))
	revoked, err := bl.IsRevoked(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}
