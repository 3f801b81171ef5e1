// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/ratelimit"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// DefaultReturn is where a user lands after signing in without a return URL.
const DefaultReturn = "/workspaces"

type Handler struct {
	Backend    *backend.Client
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(be *backend.Client, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Backend:    be,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    ratelimit.NewLoginLimiter(),
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error      string
	Email      string
	ReturnURL  string
	Registered bool
}

type loginInput struct {
	Email    string `validate:"required,email" label:"Email"`
	Password string `validate:"required" label:"Password"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, urlutil.SafeReturn(ret, "", DefaultReturn), http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:     viewdata.NewBaseVM(r, "Sign in", "/"),
		ReturnURL:  ret,
		Registered: query.Get(r, "registered") == "1",
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if res := inputval.Validate(loginInput{Email: email, Password: password}); res.HasErrors() {
		h.renderFormWithError(w, r, res.First(), email, ret)
		return
	}

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.AuditLog.LoginFailed(r.Context(), r, email, "rate limited", http.StatusTooManyRequests)
		w.WriteHeader(http.StatusTooManyRequests)
		h.renderFormWithError(w, r, msg, email, ret)
		return
	}

	// The credential is caught in memory until the session exists.
	ctx := r.Context()
	cred := backend.NewMemoryCredential("")
	sess := h.Backend.Session(cred)

	if err := sess.Login(ctx, email, password); err != nil {
		h.AuditLog.LoginFailed(ctx, r, email, failureReason(err), backend.StatusCode(err))
		var te *backend.TransportError
		if errors.As(err, &te) {
			h.Log.Warn("login: backend unreachable", zap.Error(err))
			h.renderFormWithError(w, r, viewstate.ErrorMessage(err), email, ret)
			return
		}
		h.renderFormWithError(w, r, "Invalid email or password.", email, ret)
		return
	}
	if cred.Token() == "" {
		h.AuditLog.LoginFailed(ctx, r, email, "no credential issued", 0)
		h.ErrLog.LogServerError(w, r, "login: backend issued no credential", nil, "Sign in failed. Please try again.", "/login")
		return
	}

	u := auth.SessionUser{Name: email, LoginID: email, Role: "client"}
	if id, err := sess.Whoami(ctx); err != nil {
		h.Log.Warn("login: whoami failed, using email as name", zap.String("login_id", email), zap.Error(err))
	} else {
		u.Name = id.Username
		if id.Role != "" {
			u.Role = models.RoleName(id.Role)
		}
	}

	if err := h.SessionMgr.Begin(w, r, u, cred.Token()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("login_id", email))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", email, ret)
		return
	}

	h.Limiter.Succeeded(email)
	h.AuditLog.LoginSuccess(ctx, r, email, u.Role)

	dest := urlutil.SafeReturn(ret, "", DefaultReturn)
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func failureReason(err error) string {
	var te *backend.TransportError
	switch {
	case errors.As(err, &te):
		return "backend unreachable"
	case backend.IsUnauthorized(err):
		return "invalid credentials"
	}
	return err.Error()
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
