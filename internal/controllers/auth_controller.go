package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yata-app/yata-api/internal/middleware"
	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

// stateCookieName carries the anti-forgery state across the Google redirect.
const stateCookieName = "oauth_state"

// stateCookieMaxAge bounds how long a pending login redirect stays valid.
const stateCookieMaxAge = 10 * 60

// AuthController handles federated login and the session lifecycle.
type AuthController struct {
	google     services.GoogleAuthService
	users      services.UserService
	sessions   services.SessionService
	sessionTTL time.Duration
}

func NewAuthController(
	google services.GoogleAuthService,
	users services.UserService,
	sessions services.SessionService,
	sessionTTL time.Duration,
) *AuthController {
	return &AuthController{
		google:     google,
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// GoogleLogin redirects the browser to Google's authorization page, pinning
// a random state value in a short-lived cookie for the callback to verify.
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	state := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, stateCookieMaxAge, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, ac.google.AuthURL(state))
}

// GoogleCallback verifies the anti-forgery state, exchanges the authorization
// code, upserts the user and opens a session delivered as an HttpOnly cookie.
func (ac *AuthController) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	expected, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || state != expected {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Invalid state parameter"))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Missing authorization code"))
		return
	}

	info, err := ac.google.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.WithError(err).Warn("Google code exchange failed")
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Authentication failed"))
		return
	}

	user, err := ac.users.UpsertGoogleUser(info)
	if err != nil {
		log.WithError(err).Error("Failed to upsert user")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to store user"))
		return
	}

	sessionID, err := ac.sessions.Create(c.Request.Context(), user)
	if err != nil {
		log.WithError(err).Error("Failed to create session")
		c.JSON(http.StatusServiceUnavailable, models.NewAPIError(models.ErrUnavailable, "Session store unavailable"))
		return
	}

	ac.setSessionCookie(c, sessionID, int(ac.sessionTTL.Seconds()))
	c.JSON(http.StatusOK, user)
}

// Logout deletes the session and clears the cookie. Idempotent: logging out
// twice is a no-op.
func (ac *AuthController) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.SessionCookieName); err == nil && sessionID != "" {
		if _, err := ac.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			log.WithError(err).Warn("Failed to delete session on logout")
		}
	}

	ac.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Not authenticated"))
		return
	}

	user, err := ac.users.GetByID(principal.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to load user")
		c.JSON(http.StatusServiceUnavailable, models.NewAPIError(models.ErrUnavailable, "User store unavailable"))
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "User not found"))
		return
	}

	c.JSON(http.StatusOK, user)
}

func (ac *AuthController) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, value, maxAge, "/", "", false, true)
}
