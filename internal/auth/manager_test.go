package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/logging"
	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/users"
	"github.com/yourusername/session-auth/internal/views"
)

func newLoginEngine(t *testing.T, store users.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := views.Templates()
	require.NoError(t, err)

	cfg := &config.Config{GinMode: gin.TestMode, SessionTTLHours: 24, UnauthenticatedRedirect: "/"}
	manager := NewManager(cfg, store, newTestHasher(), logging.Discard(), nil)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(sessions.Sessions(SessionCookieName,
		sessionstore.NewStore(sessionstore.NewMemoryBackend(), time.Hour, []byte("manager-test-secret-0123456789ab"))))
	router.POST("/login", manager.Login)
	return router
}

func loginRequest(ctx context.Context, username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginCanceledRequest(t *testing.T) {
	store := users.NewMemoryStore()
	seedUser(t, store, newTestHasher(), "u-1", "alice", "pw1")
	router := newLoginEngine(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, loginRequest(ctx, "alice", "pw1"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	assert.Contains(t, rec.Body.String(), `data-code="REQUEST_CANCELED"`)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginSucceeds(t *testing.T) {
	store := users.NewMemoryStore()
	seedUser(t, store, newTestHasher(), "u-1", "alice", "pw1")
	router := newLoginEngine(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, loginRequest(context.Background(), "alice", "pw1"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rec.Code)
	}
	assert.Equal(t, "/userpage", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies())
}
