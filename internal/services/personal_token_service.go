package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/models"
)

// TokenUsageStats summarizes a user's personal token usage.
type TokenUsageStats struct {
	ActiveTokens int64 `json:"active_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
	RecentlyUsed int64 `json:"recently_used"`
	MaxAllowed   int   `json:"max_allowed"`
}

// PersonalTokenService owns long-lived per-user tokens. Only a SHA-256
// digest of the secret is persisted; the plaintext is returned exactly once
// at creation and cannot be recovered later.
type PersonalTokenService interface {
	Create(user *models.User, name string, expiresInDays int) (*models.PersonalToken, string, error)
	Validate(plaintext string) (*models.User, error)
	Revoke(tokenID string, user *models.User) (bool, error)
	ListActive(user *models.User) ([]models.PersonalToken, error)
	CleanupExpired() (int64, error)
	UsageStats(user *models.User) (*TokenUsageStats, error)
}

type personalTokenService struct {
	db         *gorm.DB
	maxPerUser int
}

func NewPersonalTokenService(db *gorm.DB, maxPerUser int) PersonalTokenService {
	return &personalTokenService{db: db, maxPerUser: maxPerUser}
}

// Create mints a new personal token for the user. Fails with
// ErrQuotaExceeded before anything is persisted when the user already holds
// the maximum number of active, unexpired tokens.
func (s *personalTokenService) Create(user *models.User, name string, expiresInDays int) (*models.PersonalToken, string, error) {
	var activeCount int64
	err := s.db.Model(&models.PersonalToken{}).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", user.ID, true, time.Now()).
		Count(&activeCount).Error
	if err != nil {
		return nil, "", err
	}
	if activeCount >= int64(s.maxPerUser) {
		return nil, "", ErrQuotaExceeded
	}

	secret, err := generateSecret(64)
	if err != nil {
		return nil, "", err
	}

	token := &models.PersonalToken{
		ID:        uuid.New().String(),
		Name:      name,
		TokenHash: hashToken(secret),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Duration(expiresInDays) * 24 * time.Hour),
		IsActive:  true,
	}

	if err := s.db.Create(token).Error; err != nil {
		return nil, "", err
	}

	return token, secret, nil
}

// Validate digests the presented secret and looks it up. A hit touches
// last_used_at (last-writer-wins; it is an observability field, not a
// security gate) and returns the owning user. nil on any miss.
func (s *personalTokenService) Validate(plaintext string) (*models.User, error) {
	var token models.PersonalToken
	err := s.db.Where("token_hash = ? AND is_active = ? AND expires_at > ?",
		hashToken(plaintext), true, time.Now()).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(&token).Update("last_used_at", now).Error; err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Where("id = ?", token.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Revoke deactivates the token only when it belongs to the requesting user.
// Cross-user attempts fail closed: false, without leaking existence.
func (s *personalTokenService) Revoke(tokenID string, user *models.User) (bool, error) {
	result := s.db.Model(&models.PersonalToken{}).
		Where("id = ? AND user_id = ? AND is_active = ?", tokenID, user.ID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListActive returns the user's active tokens, newest first.
func (s *personalTokenService) ListActive(user *models.User) ([]models.PersonalToken, error) {
	var tokens []models.PersonalToken
	err := s.db.Where("user_id = ? AND is_active = ?", user.ID, true).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// CleanupExpired batch-deactivates every token past its deadline, regardless
// of the current active flag. Intended to run on a schedule.
func (s *personalTokenService) CleanupExpired() (int64, error) {
	result := s.db.Model(&models.PersonalToken{}).
		Where("expires_at < ?", time.Now()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *personalTokenService) UsageStats(user *models.User) (*TokenUsageStats, error) {
	now := time.Now()
	stats := &TokenUsageStats{MaxAllowed: s.maxPerUser}

	err := s.db.Model(&models.PersonalToken{}).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", user.ID, true, now).
		Count(&stats.ActiveTokens).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.PersonalToken{}).
		Where("user_id = ?", user.ID).
		Count(&stats.TotalTokens).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.PersonalToken{}).
		Where("user_id = ? AND last_used_at > ?", user.ID, now.Add(-7*24*time.Hour)).
		Count(&stats.RecentlyUsed).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func hashToken(plaintext string) string {
	digest := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(digest[:])
}
