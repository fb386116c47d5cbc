package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yata-app/yata-api/internal/middleware"
	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

// PersonalTokenController manages a user's personal access tokens. All
// routes sit behind session authentication.
type PersonalTokenController struct {
	tokens services.PersonalTokenService
	users  services.UserService
}

func NewPersonalTokenController(tokens services.PersonalTokenService, users services.UserService) *PersonalTokenController {
	return &PersonalTokenController{tokens: tokens, users: users}
}

type createTokenRequest struct {
	Name string `json:"name" binding:"required"`
	// Pointer so an explicit 0 (immediately expired) is distinguishable
	// from an absent field.
	ExpiresInDays *int `json:"expires_in_days"`
}

type createTokenResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Create mints a new token. The plaintext secret appears in this response
// and nowhere else; it cannot be recovered later.
func (pc *PersonalTokenController) Create(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	var req createTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	expiresInDays := 30
	if req.ExpiresInDays != nil {
		expiresInDays = *req.ExpiresInDays
	}

	token, plaintext, err := pc.tokens.Create(user, req.Name, expiresInDays)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrTokenQuota,
				"Maximum number of active tokens reached"))
			return
		}
		log.WithError(err).Error("Personal token creation failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Token creation failed"))
		return
	}

	c.JSON(http.StatusCreated, createTokenResponse{
		ID:        token.ID,
		Name:      token.Name,
		Token:     plaintext,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	})
}

// List returns the user's active tokens, newest first. Metadata only, never
// secrets.
func (pc *PersonalTokenController) List(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	tokens, err := pc.tokens.ListActive(user)
	if err != nil {
		log.WithError(err).Error("Failed to list personal tokens")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to list tokens"))
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Stats returns the user's token usage statistics.
func (pc *PersonalTokenController) Stats(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	stats, err := pc.tokens.UsageStats(user)
	if err != nil {
		log.WithError(err).Error("Failed to compute token stats")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to compute stats"))
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Revoke deactivates one of the user's tokens. A token owned by someone else
// reports not-found, never forbidden, so existence is not leaked.
func (pc *PersonalTokenController) Revoke(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	revoked, err := pc.tokens.Revoke(c.Param("id"), user)
	if err != nil {
		log.WithError(err).Error("Token revocation failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Revocation failed"))
		return
	}
	if !revoked {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrTokenNotFound, "Token not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token revoked successfully"})
}

func (pc *PersonalTokenController) currentUser(c *gin.Context) (*models.User, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Not authenticated"))
		return nil, false
	}

	user, err := pc.users.GetByID(principal.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to load user")
		c.JSON(http.StatusServiceUnavailable, models.NewAPIError(models.ErrUnavailable, "User store unavailable"))
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "User not found"))
		return nil, false
	}
	return user, true
}
