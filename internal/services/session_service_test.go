package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yata-app/yata-api/internal/models"
)

func setupSessionTest(t *testing.T) (*miniredis.Miniredis, SessionService) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewSessionService(rdb, 1*time.Hour)
}

func testUser() *models.User {
	return &models.User{
		ID:       "user-1",
		GoogleID: "google-1",
		Email:    "user@example.com",
		Name:     "Test User",
		IsActive: true,
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	mr, sessions := setupSessionTest(t)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	data, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "user-1", data.UserID)
	assert.Equal(t, "user@example.com", data.Email)
	assert.Equal(t, "Test User", data.Name)

	// The value lives under the session: prefix with the full TTL applied
	ttl := mr.TTL("session:" + sessionID)
	assert.Equal(t, 1*time.Hour, ttl)
}

func TestSessionGetMissingIsNotAnError(t *testing.T) {
	_, sessions := setupSessionTest(t)

	data, err := sessions.Get(context.Background(), "no-such-session")
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestSessionExpiry(t *testing.T) {
	mr, sessions := setupSessionTest(t)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, testUser())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	data, err := sessions.Get(ctx, sessionID)
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestSessionRefreshResetsFullTTL(t *testing.T) {
	mr, sessions := setupSessionTest(t)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, testUser())
	require.NoError(t, err)

	// Burn half the lifetime, then refresh: TTL must be back to the full window
	mr.FastForward(30 * time.Minute)
	refreshed, err := sessions.Refresh(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 1*time.Hour, mr.TTL("session:"+sessionID))

	// Refresh followed by get returns the same data
	data, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "user-1", data.UserID)
}

func TestSessionRefreshMissing(t *testing.T) {
	_, sessions := setupSessionTest(t)

	refreshed, err := sessions.Refresh(context.Background(), "no-such-session")
	assert.NoError(t, err)
	assert.False(t, refreshed)
}

func TestSessionDeleteIsIdempotent(t *testing.T) {
	_, sessions := setupSessionTest(t)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, testUser())
	require.NoError(t, err)

	deleted, err := sessions.Delete(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deletion is revocation: a subsequent get is absent
	data, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, data)

	// Repeated delete reports false, never errors
	deleted, err = sessions.Delete(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSessionCorruptPayloadIsStoreFault(t *testing.T) {
	mr, sessions := setupSessionTest(t)

	// A value the authority cannot decode is a fault in the store, not a
	// missing or expired session
	require.NoError(t, mr.Set("session:mangled", "{not json"))

	data, err := sessions.Get(context.Background(), "mangled")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Nil(t, data)
}

func TestSessionStoreDownIsNotUnauthenticated(t *testing.T) {
	mr, sessions := setupSessionTest(t)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, testUser())
	require.NoError(t, err)

	mr.Close()

	_, err = sessions.Get(ctx, sessionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	_, err = sessions.Refresh(ctx, sessionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
}
