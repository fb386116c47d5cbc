package services

import (
	"errors"
)

// Failure taxonomy for the authentication core. The boundary layer maps
// these to transport statuses; services never map to HTTP themselves.
var (
	// ErrUnauthenticated covers missing, invalid and expired credentials.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInactiveUser marks a valid credential whose owning user is disabled.
	ErrInactiveUser = errors.New("inactive_user")

	// ErrQuotaExceeded is returned when a user already holds the maximum
	// number of active personal tokens. Recoverable by revoking a token.
	ErrQuotaExceeded = errors.New("token_quota_exceeded")

	// ErrInvalidScope is returned when a token request names a scope outside
	// the client's allowed set. Wrapped with the offending scope.
	ErrInvalidScope = errors.New("invalid_scope")

	// ErrStoreUnavailable marks a connectivity fault against the session
	// cache or the database. Never conflated with ErrUnauthenticated.
	ErrStoreUnavailable = errors.New("store_unavailable")
)
