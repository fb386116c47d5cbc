package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

// OAuthController exposes the RFC 6749 client-credentials token endpoint and
// the client setup path.
type OAuthController struct {
	oauth           services.OAuthService
	tokenTTLSeconds int
}

func NewOAuthController(oauth services.OAuthService, tokenTTLSeconds int) *OAuthController {
	return &OAuthController{oauth: oauth, tokenTTLSeconds: tokenTTLSeconds}
}

type tokenRequest struct {
	GrantType string `json:"grant_type" form:"grant_type"`
	Scope     string `json:"scope" form:"scope"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Token handles POST /oauth/token. Client credentials arrive basic-auth
// style; only the client_credentials grant is supported. Requesting any
// scope outside the client's allowed set rejects the whole request.
func (oc *OAuthController) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}

	if req.GrantType != "client_credentials" {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnsupportedGrantType,
			"Only the client_credentials grant type is supported"))
		return
	}

	clientID, clientSecret, ok := c.Request.BasicAuth()
	if !ok {
		c.Header("WWW-Authenticate", "Basic")
		c.JSON(http.StatusUnauthorized, models.NewOAuth2Error(models.ErrInvalidClient,
			"Client credentials must be sent via HTTP Basic authentication"))
		return
	}

	client, err := oc.oauth.AuthenticateClient(clientID, clientSecret)
	if err != nil {
		log.WithError(err).Error("Client authentication query failed")
		c.JSON(http.StatusServiceUnavailable, models.NewAPIError(models.ErrUnavailable, "Authentication backend unavailable"))
		return
	}
	if client == nil {
		c.Header("WWW-Authenticate", "Basic")
		c.JSON(http.StatusUnauthorized, models.NewOAuth2Error(models.ErrInvalidClient, "Invalid client credentials"))
		return
	}

	requestedScopes := models.ParseScopes(req.Scope)
	token, err := oc.oauth.IssueToken(client, requestedScopes)
	if err != nil {
		if errors.Is(err, services.ErrInvalidScope) {
			c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidScope, err.Error()))
			return
		}
		log.WithError(err).Error("Token issuance failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Token issuance failed"))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   oc.tokenTTLSeconds,
		Scope:       token.Scopes.String(),
	})
}

// CreateClient registers a new OAuth client (development/setup path). The
// client secret is returned exactly once.
func (oc *OAuthController) CreateClient(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Scopes string `json:"scopes"`
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	scopes := models.ParseScopes(req.Scopes)
	if len(scopes) == 0 {
		scopes = models.ScopeList{"todos:read", "todos:write"}
	}

	client, err := oc.oauth.CreateClient(req.Name, scopes, req.UserID)
	if err != nil {
		log.WithError(err).Error("Client creation failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Client creation failed"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"client_id":     client.ClientID,
		"client_secret": client.ClientSecret, // Return plain secret only once
		"client_name":   client.ClientName,
		"scopes":        client.Scopes,
	})
}
