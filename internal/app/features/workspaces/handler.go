// internal/app/features/workspaces/handler.go
package workspaces

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/store/preferences"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/identity"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/timeouts"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the workspace lists, the workspace page and the writes
// issued from them. Prefs may be nil, in which case the last selected
// workspace is not remembered.
type Handler struct {
	Backend        *backend.Client
	Mutate         *mutate.Dispatcher
	Prefs          *preferences.Store
	ErrLog         *uierrors.ErrorLogger
	AuditLog       *auditlog.Logger
	Log            *zap.Logger
	MaxUploadBytes int64
}

// NewHandler creates a new workspaces Handler.
func NewHandler(be *backend.Client, dispatcher *mutate.Dispatcher, prefs *preferences.Store, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = filexfer.DefaultMaxUpload
	}
	return &Handler{
		Backend:        be,
		Mutate:         dispatcher,
		Prefs:          prefs,
		ErrLog:         errLog,
		AuditLog:       audit,
		Log:            logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) session(r *http.Request) *backend.Session {
	return h.Backend.Session(auth.CredentialFrom(r))
}

// username is the backend username of the viewer, used for ownership.
func username(r *http.Request) string {
	if n := identity.Name(r); n != identity.Anonymous {
		return n
	}
	if u, ok := auth.CurrentUser(r); ok {
		return u.Name
	}
	return ""
}

func loginID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.LoginID
	}
	return ""
}

func workspaceURL(id models.ID) string {
	return "/workspaces/" + id.String()
}

func target(id models.ID) string {
	return "workspace:" + id.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Last selected workspace                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) lastWorkspace(r *http.Request) models.ID {
	if h.Prefs == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	id, err := h.Prefs.LastWorkspace(ctx, loginID(r))
	if err != nil {
		h.Log.Warn("load last workspace failed", zap.String("login_id", loginID(r)), zap.Error(err))
		return ""
	}
	return id
}

func (h *Handler) rememberWorkspace(r *http.Request, id models.ID) {
	if h.Prefs == nil || id.IsZero() {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Prefs.SetLastWorkspace(ctx, loginID(r), id); err != nil {
		h.Log.Warn("save last workspace failed", zap.String("login_id", loginID(r)), zap.Error(err))
	}
}

func (h *Handler) forgetWorkspace(r *http.Request) {
	if h.Prefs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Prefs.ClearLastWorkspace(ctx, loginID(r)); err != nil {
		h.Log.Warn("clear last workspace failed", zap.String("login_id", loginID(r)), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Write outcome                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// finish completes a write. Success and a dropped duplicate redirect to
// dest; a rejected credential goes to sign in; any other failure is shown
// through reRender with the dialog left open.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, op string, err error, dest, notFound string, reRender func(msg string)) {
	switch {
	case err == nil, errors.Is(err, mutate.ErrDuplicate):
		http.Redirect(w, r, dest, http.StatusSeeOther)
	case h.ErrLog.SessionExpired(w, r, err):
	default:
		h.Log.Warn("workspace write failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		reRender(mutate.Failure(err, notFound))
	}
}
