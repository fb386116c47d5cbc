package services

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.OAuthToken{},
		&models.PersonalToken{},
	)
	require.NoError(t, err)

	return db
}

func createTestClient(t *testing.T, svc OAuthService) *models.OAuthClient {
	client, err := svc.CreateClient("Test Client", models.ScopeList{"todos:read", "todos:write"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, client.ClientID)
	require.NotEmpty(t, client.ClientSecret)
	return client
}

func TestAuthenticateClient(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOAuthService(db, time.Hour)
	client := createTestClient(t, svc)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.AuthenticateClient(client.ClientID, client.ClientSecret)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, client.ClientID, got.ClientID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		got, err := svc.AuthenticateClient(client.ClientID, "wrong-secret")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown client", func(t *testing.T) {
		got, err := svc.AuthenticateClient("no-such-client", client.ClientSecret)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("inactive client", func(t *testing.T) {
		require.NoError(t, db.Model(&models.OAuthClient{}).
			Where("client_id = ?", client.ClientID).
			Update("is_active", false).Error)

		got, err := svc.AuthenticateClient(client.ClientID, client.ClientSecret)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestIssueTokenRejectsOutOfGrantScope(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOAuthService(db, time.Hour)
	client := createTestClient(t, svc)

	token, err := svc.IssueToken(client, models.ScopeList{"todos:read", "todos:delete"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScope))
	// The error names the scope that was not granted
	assert.Contains(t, err.Error(), "todos:delete")
	assert.Nil(t, token)

	// The whole request was rejected: no token row was created
	var count int64
	require.NoError(t, db.Model(&models.OAuthToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIssueTokenSupersedesPreviousToken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOAuthService(db, time.Hour)
	client := createTestClient(t, svc)

	var lastToken *models.OAuthToken
	for i := 0; i < 5; i++ {
		token, err := svc.IssueToken(client, models.ScopeList{"todos:read"})
		require.NoError(t, err)
		lastToken = token
	}

	// Exactly one token is active, and it is the most recent one
	var active []models.OAuthToken
	require.NoError(t, db.Where("client_id = ? AND is_active = ?", client.ClientID, true).
		Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, lastToken.AccessToken, active[0].AccessToken)

	// The superseded tokens no longer validate
	var all []models.OAuthToken
	require.NoError(t, db.Where("client_id = ?", client.ClientID).Find(&all).Error)
	assert.Len(t, all, 5)
}

func TestIssueTokenConcurrentIssuance(t *testing.T) {
	// File-backed database so the goroutines contend on a real write lock;
	// the in-memory DSN gives every connection its own database
	dsn := filepath.Join(t.TempDir(), "tokens.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.OAuthToken{},
	))

	svc := NewOAuthService(db, time.Hour)
	client := createTestClient(t, svc)

	const issuers = 8
	errs := make(chan error, issuers)

	var wg sync.WaitGroup
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IssueToken(client, models.ScopeList{"todos:read"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every issuance landed, and the deactivate-then-insert transactions
	// left exactly one token active for the client
	var total, active int64
	require.NoError(t, db.Model(&models.OAuthToken{}).
		Where("client_id = ?", client.ClientID).Count(&total).Error)
	require.NoError(t, db.Model(&models.OAuthToken{}).
		Where("client_id = ? AND is_active = ?", client.ClientID, true).Count(&active).Error)
	assert.EqualValues(t, issuers, total)
	assert.EqualValues(t, 1, active)
}

func TestValidateToken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOAuthService(db, time.Hour)
	client := createTestClient(t, svc)

	token, err := svc.IssueToken(client, models.ScopeList{"todos:read"})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		got, err := svc.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, client.ClientID, got.ClientID)
		assert.Equal(t, models.ScopeList{"todos:read"}, got.Scopes)
	})

	t.Run("unknown token", func(t *testing.T) {
		got, err := svc.ValidateToken("no-such-token")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("superseded token", func(t *testing.T) {
		replacement, err := svc.IssueToken(client, models.ScopeList{"todos:read"})
		require.NoError(t, err)

		got, err := svc.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = svc.ValidateToken(replacement.AccessToken)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestValidateTokenExpired(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOAuthService(db, time.Hour)
	client := createTestClient(t, svc)

	// A token past its deadline fails validation even though the active
	// flag was never flipped
	expired := &models.OAuthToken{
		ID:          "expired-token",
		ClientID:    client.ClientID,
		AccessToken: "expired-access-token",
		TokenType:   "Bearer",
		Scopes:      models.ScopeList{"todos:read"},
		ExpiresAt:   time.Now().Add(-1 * time.Minute),
		IsActive:    true,
	}
	require.NoError(t, db.Create(expired).Error)

	got, err := svc.ValidateToken("expired-access-token")
	require.NoError(t, err)
	assert.Nil(t, got)
}
