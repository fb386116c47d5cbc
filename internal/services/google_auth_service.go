package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleAuthService is the thin call-out to Google's authorization server.
// The core only consumes the resulting identity payload; the redirect dance
// itself belongs to Google.
type GoogleAuthService interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*GoogleUserInfo, error)
}

type googleAuthService struct {
	oauth *oauth2.Config
}

func NewGoogleAuthService(clientID, clientSecret, frontendURL string) GoogleAuthService {
	return &googleAuthService{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  frontendURL + "/auth/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
	}
}

// AuthURL builds the authorization redirect. The caller-supplied state is
// echoed back by Google and must be verified on the callback.
func (s *googleAuthService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("access_type", "offline"))
}

// ExchangeCode trades the authorization code for an access token and fetches
// the user's identity payload with it.
func (s *googleAuthService) ExchangeCode(ctx context.Context, code string) (*GoogleUserInfo, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}
