// internal/app/features/admin/handler.go
package admin

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"go.uber.org/zap"
)

// Handler serves the admin pages: every workspace, departments with their
// members, and user accounts.
type Handler struct {
	Backend  *backend.Client
	Mutate   *mutate.Dispatcher
	Events   *audit.Store // nil when audit rows are not kept in Mongo
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler creates a new admin Handler.
func NewHandler(be *backend.Client, dispatcher *mutate.Dispatcher, events *audit.Store, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Backend:  be,
		Mutate:   dispatcher,
		Events:   events,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
	}
}

func (h *Handler) session(r *http.Request) *backend.Session {
	return h.Backend.Session(auth.CredentialFrom(r))
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, back string) bool {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return false
	}
	return true
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, op string, err error, dest, notFound string, reRender func(msg string)) {
	switch {
	case err == nil, errors.Is(err, mutate.ErrDuplicate):
		http.Redirect(w, r, dest, http.StatusSeeOther)
	case h.ErrLog.SessionExpired(w, r, err):
	default:
		h.Log.Warn("admin write failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		reRender(mutate.Failure(err, notFound))
	}
}
