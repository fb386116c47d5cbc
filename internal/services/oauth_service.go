package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/models"
)

// OAuthService owns registered clients and their client-credentials bearer
// tokens. At most one token per client is active at any time: issuing a new
// token supersedes the previous one in the same transaction.
type OAuthService interface {
	CreateClient(name string, scopes models.ScopeList, userID string) (*models.OAuthClient, error)
	GetClient(clientID string) (*models.OAuthClient, error)
	AuthenticateClient(clientID, clientSecret string) (*models.OAuthClient, error)
	IssueToken(client *models.OAuthClient, requestedScopes models.ScopeList) (*models.OAuthToken, error)
	ValidateToken(accessToken string) (*models.OAuthToken, error)
}

type oauthService struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

func NewOAuthService(db *gorm.DB, tokenTTL time.Duration) OAuthService {
	return &oauthService{db: db, tokenTTL: tokenTTL}
}

// CreateClient registers a new OAuth client and returns it with the
// generated client_id and client_secret. This is a setup path; the secret is
// only shown at creation time.
func (s *oauthService) CreateClient(name string, scopes models.ScopeList, userID string) (*models.OAuthClient, error) {
	clientID, err := generateSecret(24)
	if err != nil {
		return nil, err
	}
	clientSecret, err := generateSecret(48)
	if err != nil {
		return nil, err
	}

	client := &models.OAuthClient{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ClientName:   name,
		UserID:       userID,
		Scopes:       scopes,
		IsActive:     true,
	}

	if err := s.db.Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (s *oauthService) GetClient(clientID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	err := s.db.Where("client_id = ?", clientID).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// AuthenticateClient checks the presented secret against the stored one in
// constant time. Returns nil on any mismatch or inactive client; the caller
// cannot distinguish an unknown client from a wrong secret.
func (s *oauthService) AuthenticateClient(clientID, clientSecret string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	err := s.db.Where("client_id = ? AND is_active = ?", clientID, true).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(clientSecret)) != 1 {
		return nil, nil
	}
	return &client, nil
}

// IssueToken validates the requested scopes against the client's allowed set
// and mints a fresh opaque bearer token. Every previously active token for
// the client is deactivated in the same transaction, so two concurrent
// issuances can never leave two simultaneously active tokens.
func (s *oauthService) IssueToken(client *models.OAuthClient, requestedScopes models.ScopeList) (*models.OAuthToken, error) {
	for _, scope := range requestedScopes {
		if !client.Scopes.Contains(scope) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidScope, scope)
		}
	}

	accessToken, err := generateSecret(32)
	if err != nil {
		return nil, err
	}

	token := &models.OAuthToken{
		ID:          uuid.New().String(),
		ClientID:    client.ClientID,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Scopes:      requestedScopes,
		ExpiresAt:   time.Now().Add(s.tokenTTL),
		IsActive:    true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OAuthToken{}).
			Where("client_id = ? AND is_active = ?", client.ClientID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// ValidateToken looks up the token by exact match. Validity requires the
// active flag and an unexpired deadline; the record itself is not touched.
func (s *oauthService) ValidateToken(accessToken string) (*models.OAuthToken, error) {
	var token models.OAuthToken
	err := s.db.Where("access_token = ? AND is_active = ? AND expires_at > ?",
		accessToken, true, time.Now()).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}
