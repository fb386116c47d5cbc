package auth

import (
	"github.com/yata-app/yata-api/internal/models"
)

// Scheme identifies which credential personality a route accepts. The scheme
// is declared by the route the credential arrived on, never inferred from
// the token itself.
type Scheme string

const (
	SchemeSession       Scheme = "session"
	SchemeOAuthClient   Scheme = "oauth_client"
	SchemePersonalToken Scheme = "personal_token"
)

// Principal is the normalized identity produced by validating exactly one
// credential. It is derived, never persisted.
type Principal struct {
	// UserID is the resource owner. Empty for an OAuth client principal
	// whose client has no resource-owner mapping.
	UserID   string
	ClientID string
	Email    string
	Name     string
	Scheme   Scheme
	Scopes   models.ScopeList
}

// HasScope reports whether the principal was granted the scope. Session and
// personal-token principals act with the full authority of their user and
// carry no scope restriction.
func (p *Principal) HasScope(scope string) bool {
	if p.Scheme != SchemeOAuthClient {
		return true
	}
	return p.Scopes.Contains(scope)
}
