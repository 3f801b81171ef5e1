package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
// LoginID is the email the user signed in with.
type SessionUser struct {
	Name    string
	LoginID string
	Role    string
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	credentialKey  ctxKey = "credential"
)

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// CredentialFrom returns the backend credential for the request, or nil when
// nobody is signed in.
func CredentialFrom(r *http.Request) backend.Credential {
	c, _ := r.Context().Value(credentialKey).(backend.Credential)
	return c
}

// WithTestUser puts u and a fixed credential into the request context,
// standing in for LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser, token string) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, u)
	ctx = context.WithValue(ctx, credentialKey, backend.Credential(backend.NewMemoryCredential(token)))
	return r.WithContext(ctx)
}

// sessionCredential holds the backend token for one request. A refresh is
// remembered and written back to the session when the response starts.
type sessionCredential struct {
	mu      sync.Mutex
	token   string
	pending bool
}

func (c *sessionCredential) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *sessionCredential) Refresh(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != "" && token != c.token {
		c.token = token
		c.pending = true
	}
}

// take returns a refreshed token once.
func (c *sessionCredential) take() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return "", false
	}
	c.pending = false
	return c.token, true
}

// refreshWriter saves a refreshed credential into the session cookie just
// before the first header or body byte goes out.
type refreshWriter struct {
	http.ResponseWriter
	r       *http.Request
	sm      *SessionManager
	cred    *sessionCredential
	written bool
}

func (w *refreshWriter) flush() {
	if w.written {
		return
	}
	w.written = true
	if tok, ok := w.cred.take(); ok {
		w.sm.storeToken(w.ResponseWriter, w.r, tok)
	}
}

func (w *refreshWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *refreshWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

// Flush saves a pending refresh before streamed headers go out.
func (w *refreshWriter) Flush() {
	w.flush()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *refreshWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// LoadSessionUser injects the user and credential into context if they are
// logged in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{
			Name:    getString(sess, userName),
			LoginID: getString(sess, userLogin),
			Role:    getString(sess, userRole),
		}
		cred := &sessionCredential{token: getString(sess, backendKey)}

		ctx := context.WithValue(r.Context(), currentUserKey, u)
		ctx = context.WithValue(ctx, credentialKey, backend.Credential(cred))
		r = r.WithContext(ctx)

		rw := &refreshWriter{ResponseWriter: w, r: r, sm: sm, cred: cred}
		next.ServeHTTP(rw, r)
		// A handler that writes nothing gets an implicit 200 after this
		// returns, so the refresh still has to land in the header map.
		rw.flush()
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
// Role names compare case-insensitively.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToLogin sends the caller to the login page, preserving the
// current URI as the return target.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	unauthorized(w, r)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	dest := "/login?return=" + url.QueryEscape(currentURI(r))

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/forbidden")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
