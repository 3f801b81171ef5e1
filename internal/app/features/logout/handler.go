// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles GET and POST /logout. The backend credential lives
// only in the session, so ending the session drops it.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	loginID := ""
	if u, ok := auth.CurrentUser(r); ok {
		loginID = u.LoginID
	}

	if err := h.SessionMgr.End(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if loginID != "" {
		h.AuditLog.Logout(r.Context(), r, loginID)
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
