package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func newSession(userID, token string, ttl time.Duration) *models.Session {
	return &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: models.ToMillis(time.Now().Add(ttl)),
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore("not a url")
	assert.Error(t, err)
}

func TestRedisStore_CreateAndFind(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	session := newSession("user-1", "token-1", time.Hour)
	require.NoError(t, store.Create(ctx, session))
	assert.NotEmpty(t, session.ID)

	found, err := store.FindByToken(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, session.ID, found.ID)
	assert.Equal(t, "user-1", found.UserID)
	assert.Equal(t, "token-1", found.Token)
	assert.Equal(t, session.ExpiresAt, found.ExpiresAt)

	missing, err := store.FindByToken(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisStore_KeyExpiresWithSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSession("user-1", "short", time.Minute)))
	require.NoError(t, store.Create(ctx, newSession("user-1", "long", time.Hour)))

	mr.FastForward(2 * time.Minute)

	gone, err := store.FindByToken(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, gone)

	sessions, err := store.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "long", sessions[0].Token)

	members, err := mr.SMembers("session:user:user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, members)
}

func TestRedisStore_CreateExpiredIsNotStored(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSession("user-1", "old", -time.Minute)))
	assert.False(t, mr.Exists("session:old"))
}

func TestRedisStore_UpdateExpiry(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSession("user-1", "token-1", time.Minute)))

	extended := models.ToMillis(time.Now().Add(2 * time.Hour))
	require.NoError(t, store.UpdateExpiry(ctx, "token-1", extended))

	mr.FastForward(30 * time.Minute)

	found, err := store.FindByToken(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, extended, found.ExpiresAt)

	err = store.UpdateExpiry(ctx, "missing", extended)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSession("user-1", "token-1", time.Hour)))
	require.NoError(t, store.Delete(ctx, "token-1"))
	require.NoError(t, store.Delete(ctx, "token-1"))

	assert.False(t, mr.Exists("session:token-1"))
	found, err := store.FindByToken(ctx, "token-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRedisStore_DeleteByUserID(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSession("user-1", "a", time.Hour)))
	require.NoError(t, store.Create(ctx, newSession("user-1", "b", time.Hour)))
	require.NoError(t, store.Create(ctx, newSession("user-2", "c", time.Hour)))

	require.NoError(t, store.DeleteByUserID(ctx, "user-1"))

	sessions, err := store.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.False(t, mr.Exists("session:user:user-1"))

	other, err := store.FindByUserID(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	removed, err := store.DeleteExpired(ctx, models.NowMillis())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisStore_ErrorsAreRepositoryErrors(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.SetError("server down")

	_, err := store.FindByToken(context.Background(), "token-1")
	assert.True(t, apperr.IsRepository(err))
}
