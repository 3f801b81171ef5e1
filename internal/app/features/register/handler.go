// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the self-service registration page.
type Handler struct {
	Backend  *backend.Client
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(be *backend.Client, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Backend: be, ErrLog: errLog, AuditLog: audit, Log: logger}
}

type formData struct {
	viewdata.BaseVM
	Error    string
	Username string
	Email    string
	Role     string
}

type registerInput struct {
	Username string `validate:"required,notblank,max=100" label:"Username"`
	Email    string `validate:"required,email" label:"Email"`
	Password string `validate:"required,min=6,max=200" label:"Password"`
	Confirm  string `validate:"eqfield=Password" label:"Password confirmation" msg:"Passwords do not match."`
	Role     string `validate:"oneof=2 3" label:"Role"`
}

// ServeRegister renders the registration form.
// GET /register
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", formData{
		BaseVM: viewdata.NewBaseVM(r, "Register", "/login"),
		Role:   models.RoleClient,
	})
}

// HandleRegister forwards the form to the backend. On success the user is
// sent to sign in.
// POST /register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	in := registerInput{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm"),
		Role:     strings.TrimSpace(r.FormValue("role")),
	}
	if in.Role == "" {
		in.Role = models.RoleClient
	}

	reRender := func(msg string) {
		templates.Render(w, r, "register", formData{
			BaseVM:   viewdata.NewBaseVM(r, "Register", "/login"),
			Error:    msg,
			Username: in.Username,
			Email:    in.Email,
			Role:     in.Role,
		})
	}

	if res := inputval.Validate(in); res.HasErrors() {
		reRender(res.First())
		return
	}

	ctx := r.Context()
	err := h.Backend.Session(nil).Register(ctx, backend.Registration{
		Email:    in.Email,
		Password: in.Password,
		Username: in.Username,
		Role:     in.Role,
	})
	if err != nil {
		h.AuditLog.RegisterFailed(ctx, r, in.Email, err.Error())
		var te *backend.TransportError
		if errors.As(err, &te) {
			h.Log.Warn("register: backend unreachable", zap.Error(err))
			reRender(viewstate.ErrorMessage(err))
			return
		}
		reRender("Registration failed. The email may already be in use.")
		return
	}

	h.AuditLog.Registered(ctx, r, in.Email, in.Username)
	h.Log.Info("account registered", zap.String("login_id", in.Email))

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}
