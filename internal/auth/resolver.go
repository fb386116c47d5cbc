package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yata-app/yata-api/internal/services"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Resolver dispatches an inbound credential to the authority matching its
// declared scheme and returns a normalized principal. The two bearer
// personalities are disjoint: an OAuth client token can never authenticate a
// personal-token route and vice versa, because they live in disjoint tables.
type Resolver struct {
	sessions services.SessionService
	oauth    services.OAuthService
	personal services.PersonalTokenService
	users    services.UserService
}

func NewResolver(
	sessions services.SessionService,
	oauth services.OAuthService,
	personal services.PersonalTokenService,
	users services.UserService,
) *Resolver {
	return &Resolver{
		sessions: sessions,
		oauth:    oauth,
		personal: personal,
		users:    users,
	}
}

// Resolve validates the credential under the declared scheme. Failures are
// typed: services.ErrUnauthenticated for missing/invalid/expired
// credentials, services.ErrInactiveUser for a disabled user, and
// services.ErrStoreUnavailable for connectivity faults, which are never
// masked as an authentication failure.
func (r *Resolver) Resolve(ctx context.Context, scheme Scheme, credential string) (*Principal, error) {
	if credential == "" {
		return nil, services.ErrUnauthenticated
	}

	switch scheme {
	case SchemeSession:
		return r.resolveSession(ctx, credential)
	case SchemeOAuthClient:
		return r.resolveOAuthToken(credential)
	case SchemePersonalToken:
		return r.resolvePersonalToken(credential)
	default:
		return nil, fmt.Errorf("unknown credential scheme: %s", scheme)
	}
}

func (r *Resolver) resolveSession(ctx context.Context, sessionID string) (*Principal, error) {
	session, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, services.ErrUnauthenticated
	}

	user, err := r.users.GetByID(session.UserID)
	if err != nil {
		return nil, storeFault(err)
	}
	if user == nil {
		return nil, services.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, services.ErrInactiveUser
	}

	// Sliding expiration: extend only after a successful lookup. A session
	// expiring between the lookup and here only shortens exposure, so a
	// false result is not an error.
	if _, err := r.sessions.Refresh(ctx, sessionID); err != nil {
		log.WithError(err).Warn("Failed to refresh session TTL")
	}

	return &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Scheme: SchemeSession,
	}, nil
}

func (r *Resolver) resolveOAuthToken(accessToken string) (*Principal, error) {
	token, err := r.oauth.ValidateToken(accessToken)
	if err != nil {
		return nil, storeFault(err)
	}
	if token == nil {
		return nil, services.ErrUnauthenticated
	}

	client, err := r.oauth.GetClient(token.ClientID)
	if err != nil {
		return nil, storeFault(err)
	}
	if client == nil || !client.IsActive {
		return nil, services.ErrUnauthenticated
	}

	return &Principal{
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Name:     client.ClientName,
		Scheme:   SchemeOAuthClient,
		Scopes:   token.Scopes,
	}, nil
}

func (r *Resolver) resolvePersonalToken(plaintext string) (*Principal, error) {
	user, err := r.personal.Validate(plaintext)
	if err != nil {
		return nil, storeFault(err)
	}
	if user == nil {
		return nil, services.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, services.ErrInactiveUser
	}

	return &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Scheme: SchemePersonalToken,
	}, nil
}

// storeFault tags a raw persistence error as a store fault unless it is
// already part of the failure taxonomy.
func storeFault(err error) error {
	if errors.Is(err, services.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", services.ErrStoreUnavailable, err)
}
