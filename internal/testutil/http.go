package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	Name    string
	LoginID string
	Role    string
	Token   string
}

// AdminUser returns a TestUser with the admin role.
func AdminUser(token string) TestUser {
	return TestUser{Name: "admin", LoginID: "admin@test.com", Role: "admin", Token: token}
}

// ClientUser returns a TestUser with the client role.
func ClientUser(name, token string) TestUser {
	return TestUser{Name: name, LoginID: name + "@test.com", Role: "client", Token: token}
}

// WithUser puts user and its backend credential in the request context,
// bypassing the session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		Name:    user.Name,
		LoginID: user.LoginID,
		Role:    user.Role,
	}, user.Token)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewFormRequest creates a POST request with a urlencoded body.
func NewFormRequest(target, body string, user TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return WithUser(req, user)
}

// RenderSafely runs a handler that may panic on template rendering when no
// template engine is booted, which is the case in unit tests.
func RenderSafely(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

// NewSessionManager returns a SessionManager with a fixed test key and
// insecure cookies.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

// SessionCookie returns the named cookie set on rec, or nil.
func SessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
