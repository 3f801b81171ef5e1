// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures and shows the user an error page.
// Handlers call it for failures that are not a field-level problem of the
// submitted form.
type ErrorLogger struct {
	Log   *zap.Logger
	Audit *auditlog.Logger // optional; records rejected sessions
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
}

func (e *ErrorLogger) page(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL string) {
	vm := viewdata.NewBaseVM(r, title, "/")
	if backURL != "" {
		vm.BackURL = backURL
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", pageData{BaseVM: vm, Message: userMsg})
}

// LogServerError logs an unexpected failure and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Error(msg, e.fields(r, err)...)
	e.page(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs malformed input and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	e.page(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL)
}

// LogForbidden logs a refused action and renders the access denied page.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	RenderForbidden(w, r, userMsg, backURL)
}

// HTMXLogServerError is LogServerError for htmx fragment requests: the
// message is swapped into the target instead of a full page.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	htmxError(w, http.StatusInternalServerError, userMsg)
}

// HTMXLogBadRequest is LogBadRequest for htmx fragment requests.
func (e *ErrorLogger) HTMXLogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	htmxError(w, http.StatusBadRequest, userMsg)
}

func htmxError(w http.ResponseWriter, status int, userMsg string) {
	// htmx does not swap non-2xx responses unless told to.
	w.Header().Set("HX-Reswap", "innerHTML")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.RenderSnippet(w, "error_inline", userMsg)
}

// SessionExpired handles a backend call rejected with 401: the stored
// credential is no longer valid, so the user is sent to sign in again.
// It reports whether it wrote a response.
func (e *ErrorLogger) SessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if backend.StatusCode(err) != http.StatusUnauthorized {
		return false
	}
	loginID := ""
	if u, ok := auth.CurrentUser(r); ok {
		loginID = u.LoginID
	}
	e.Log.Info("backend rejected session credential",
		zap.String("login_id", loginID),
		zap.String("path", r.URL.Path))
	e.Audit.SessionRejected(r.Context(), r, loginID)
	auth.RedirectToLogin(w, r)
	return true
}
