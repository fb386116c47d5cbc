package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yata-app/yata-api/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionService owns browser sessions in the session cache. A session is a
// JSON value under session:{id} with a sliding TTL; deleting the key is
// revocation. A cache miss is an unauthenticated outcome (nil, nil), a
// connectivity fault surfaces as ErrStoreUnavailable.
type SessionService interface {
	Create(ctx context.Context, user *models.User) (string, error)
	Get(ctx context.Context, sessionID string) (*models.SessionData, error)
	Refresh(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}

type sessionService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionService(rdb *redis.Client, ttl time.Duration) SessionService {
	return &sessionService{rdb: rdb, ttl: ttl}
}

func (s *sessionService) Create(ctx context.Context, user *models.User) (string, error) {
	sessionID := uuid.New().String()
	data := models.SessionData{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := s.rdb.SetEx(ctx, sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: writing session: %v", ErrStoreUnavailable, err)
	}

	return sessionID, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.SessionData, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Missing or expired: an unauthenticated outcome, not a fault.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading session: %v", ErrStoreUnavailable, err)
	}

	var data models.SessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		// A payload the authority itself wrote and can no longer read is a
		// store fault, not an unauthenticated caller.
		return nil, fmt.Errorf("%w: corrupt session payload: %v", ErrStoreUnavailable, err)
	}
	return &data, nil
}

// Refresh re-applies the full TTL, implementing sliding expiration. Returns
// false when the key no longer exists.
func (s *sessionService) Refresh(ctx context.Context, sessionID string) (bool, error) {
	extended, err := s.rdb.Expire(ctx, sessionKey(sessionID), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: refreshing session: %v", ErrStoreUnavailable, err)
	}
	return extended, nil
}

// Delete removes the session key. Returns true iff a key was actually
// removed, so repeated deletes are an idempotent no-op.
func (s *sessionService) Delete(ctx context.Context, sessionID string) (bool, error) {
	removed, err := s.rdb.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: deleting session: %v", ErrStoreUnavailable, err)
	}
	return removed > 0, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
