package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yata-app/yata-api/internal/auth"
	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

// SessionCookieName is the cookie carrying the opaque session identifier.
const SessionCookieName = "session_id"

const principalContextKey = "principal"

// GetPrincipal returns the principal set by one of the auth middlewares.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*auth.Principal)
	return principal, ok
}

// SessionAuth authenticates requests by session cookie. A missing cookie or
// failed lookup is an unauthenticated rejection, never a panic or 500.
func SessionAuth(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil {
			respondWithAPIError(c, http.StatusUnauthorized, models.ErrUnauthorized, "Not authenticated")
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), auth.SchemeSession, sessionID)
		if err != nil {
			abortSessionError(c, err)
			return
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// OAuthTokenAuth authenticates requests carrying an OAuth client-credentials
// bearer token. Personal tokens are rejected here: the two bearer
// personalities are not interchangeable.
func OAuthTokenAuth(resolver *auth.Resolver) gin.HandlerFunc {
	return bearerAuth(resolver, auth.SchemeOAuthClient)
}

// PersonalTokenAuth authenticates requests carrying a personal access token.
func PersonalTokenAuth(resolver *auth.Resolver) gin.HandlerFunc {
	return bearerAuth(resolver, auth.SchemePersonalToken)
}

func bearerAuth(resolver *auth.Resolver, scheme auth.Scheme) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidRequest,
				"Authorization header must use Bearer scheme. Format: 'Bearer <token>'")
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), scheme, token)
		if err != nil {
			abortBearerError(c, err)
			return
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// RequireScope rejects OAuth client principals that were not granted the
// scope. Runs after an auth middleware has set the principal.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidToken,
				"Request is not authenticated")
			return
		}

		if !principal.HasScope(scope) {
			c.Header("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
			respondWithOAuth2Error(c, http.StatusForbidden, models.ErrInsufficientScope,
				"Token was not granted the required scope: "+scope)
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from an RFC 6750 Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

func abortSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInactiveUser):
		respondWithAPIError(c, http.StatusBadRequest, models.ErrInactiveUser, "User account is disabled")
	case errors.Is(err, services.ErrStoreUnavailable):
		respondWithAPIError(c, http.StatusServiceUnavailable, models.ErrUnavailable, "Authentication backend unavailable, retry later")
	default:
		respondWithAPIError(c, http.StatusUnauthorized, models.ErrSessionExpired, "Session expired or invalid")
	}
}

func abortBearerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInactiveUser):
		respondWithOAuth2Error(c, http.StatusBadRequest, models.ErrInvalidRequest, "User account is disabled")
	case errors.Is(err, services.ErrStoreUnavailable):
		respondWithAPIError(c, http.StatusServiceUnavailable, models.ErrUnavailable, "Authentication backend unavailable, retry later")
	default:
		c.Header("WWW-Authenticate", "Bearer")
		respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidToken, "Invalid or expired token")
	}
}

// respondWithOAuth2Error responds with RFC 6750 compliant error format
func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	c.JSON(status, models.NewOAuth2Error(errorCode, description))
	c.Abort()
}

func respondWithAPIError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.NewAPIError(code, message))
	c.Abort()
}
