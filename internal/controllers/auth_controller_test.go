package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/middleware"
	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

type stubGoogleAuth struct {
	info *services.GoogleUserInfo
	err  error
}

func (s *stubGoogleAuth) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + url.QueryEscape(state)
}

func (s *stubGoogleAuth) ExchangeCode(_ context.Context, _ string) (*services.GoogleUserInfo, error) {
	return s.info, s.err
}

type loginFixture struct {
	router   *gin.Engine
	sessions services.SessionService
}

func setupLoginTest(t *testing.T, google services.GoogleAuthService) *loginFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sessions := services.NewSessionService(rdb, 1*time.Hour)
	users := services.NewUserService(db)
	controller := NewAuthController(google, users, sessions, 1*time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auth/google/login", controller.GoogleLogin)
	router.GET("/auth/google/callback", controller.GoogleCallback)

	return &loginFixture{router: router, sessions: sessions}
}

func cookieValue(cookies []*http.Cookie, name string) (string, bool) {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func TestGoogleLoginPinsStateInCookie(t *testing.T) {
	fx := setupLoginTest(t, &stubGoogleAuth{})

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, httptest.NewRequest("GET", "/auth/google/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	state, ok := cookieValue(w.Result().Cookies(), stateCookieName)
	require.True(t, ok)
	require.NotEmpty(t, state)

	// The redirect carries the same state the cookie pins
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state, location.Query().Get("state"))
}

func TestGoogleCallbackRejectsStateMismatch(t *testing.T) {
	fx := setupLoginTest(t, &stubGoogleAuth{
		info: &services.GoogleUserInfo{ID: "google-1", Email: "user@example.com", Name: "Test User"},
	})

	t.Run("no state cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		fx.router.ServeHTTP(w, httptest.NewRequest("GET", "/auth/google/callback?state=abc&code=good", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("state does not match cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/auth/google/callback?state=forged&code=good", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})

		w := httptest.NewRecorder()
		fx.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGoogleCallbackOpensSession(t *testing.T) {
	fx := setupLoginTest(t, &stubGoogleAuth{
		info: &services.GoogleUserInfo{ID: "google-1", Email: "user@example.com", Name: "Test User"},
	})

	req := httptest.NewRequest("GET", "/auth/google/callback?state=abc&code=good", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	sessionID, ok := cookieValue(w.Result().Cookies(), middleware.SessionCookieName)
	require.True(t, ok)
	require.NotEmpty(t, sessionID)

	// The cookie points at a live session for the upserted user
	data, err := fx.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "user@example.com", data.Email)

	// The state cookie is consumed by the callback
	state, ok := cookieValue(w.Result().Cookies(), stateCookieName)
	require.True(t, ok)
	assert.Empty(t, state)
}
