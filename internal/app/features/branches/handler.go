// internal/app/features/branches/handler.go
package branches

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves a branch page and the writes issued from it.
type Handler struct {
	Backend        *backend.Client
	Mutate         *mutate.Dispatcher
	ErrLog         *uierrors.ErrorLogger
	AuditLog       *auditlog.Logger
	Log            *zap.Logger
	MaxUploadBytes int64
}

// NewHandler creates a new branches Handler.
func NewHandler(be *backend.Client, dispatcher *mutate.Dispatcher, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = filexfer.DefaultMaxUpload
	}
	return &Handler{
		Backend:        be,
		Mutate:         dispatcher,
		ErrLog:         errLog,
		AuditLog:       audit,
		Log:            logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) session(r *http.Request) *backend.Session {
	return h.Backend.Session(auth.CredentialFrom(r))
}

func branchURL(spaceID, branchID models.ID) string {
	return "/workspaces/" + spaceID.String() + "/branches/" + branchID.String()
}

func target(spaceID, branchID models.ID) string {
	return "workspace:" + spaceID.String() + "/branch:" + branchID.String()
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		spaceID, branchID := ids(r)
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", branchURL(spaceID, branchID))
		return false
	}
	return true
}

// finish completes a write. Success and a dropped duplicate redirect to
// dest; a rejected credential goes to sign in; any other failure is shown
// through reRender with the dialog left open.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, op string, err error, dest, notFound string, reRender func(msg string)) {
	switch {
	case err == nil, errors.Is(err, mutate.ErrDuplicate):
		http.Redirect(w, r, dest, http.StatusSeeOther)
	case h.ErrLog.SessionExpired(w, r, err):
	default:
		h.Log.Warn("branch write failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		reRender(mutate.Failure(err, notFound))
	}
}
