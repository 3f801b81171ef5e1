package auth

import (
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// CSRF returns the CSRF middleware for form posts. The token is rendered
// by viewdata into every page; htmx sends it back in the X-CSRF-Token
// header.
func (sm *SessionManager) CSRF() func(http.Handler) http.Handler {
	protect := csrf.Protect(sm.csrfKey,
		csrf.Secure(sm.secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(sm.csrfFailed)),
	)
	if sm.secure {
		return protect
	}
	// Plain-HTTP dev servers have no TLS, so skip the strict referer check.
	return func(next http.Handler) http.Handler {
		inner := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inner.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func (sm *SessionManager) csrfFailed(w http.ResponseWriter, r *http.Request) {
	sm.log.Warn("csrf check failed",
		zap.String("path", r.URL.Path),
		zap.Error(csrf.FailureReason(r)))
	http.Error(w, "Your form expired. Reload the page and try again.", http.StatusForbidden)
}
