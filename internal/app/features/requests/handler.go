// internal/app/features/requests/handler.go
package requests

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves a request page and its close and merge actions.
type Handler struct {
	Backend  *backend.Client
	Mutate   *mutate.Dispatcher
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler creates a new requests Handler.
func NewHandler(be *backend.Client, dispatcher *mutate.Dispatcher, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Backend:  be,
		Mutate:   dispatcher,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}

type requestData struct {
	viewdata.BaseVM
	WorkspaceID    models.ID
	WorkspaceTitle string
	Request        *viewstate.Detail[models.Request]
	Description    template.HTML
	SourceName     string
	TargetName     string
	Actionable     bool
	Notice         string
	FormToken      string
}

func ids(r *http.Request) (spaceID, requestID models.ID) {
	return models.ID(chi.URLParam(r, "id")), models.ID(chi.URLParam(r, "rid"))
}

func requestURL(spaceID, requestID models.ID) string {
	return "/workspaces/" + spaceID.String() + "/requests/" + requestID.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /workspaces/{id}/requests/{rid}                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRequest renders a request. Close and merge are offered only while
// the request is Open or InReview.
func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, notice string) {
	ctx := r.Context()
	spaceID, requestID := ids(r)
	sess := h.Backend.Session(auth.CredentialFrom(r))

	d, ok := viewstate.LoadDetail(ctx, requestID.String(), func(ctx context.Context) (models.Request, error) {
		return sess.Request(ctx, spaceID, requestID)
	})
	if !ok {
		return
	}

	data := requestData{
		BaseVM:      viewdata.NewBaseVM(r, "Request", "/workspaces/"+spaceID.String()),
		WorkspaceID: spaceID,
		Request:     d,
		Notice:      notice,
		FormToken:   mutate.NewToken(),
	}

	if !d.IsLoaded() {
		if h.ErrLog.SessionExpired(w, r, d.Err()) {
			return
		}
		if errors.Is(d.Err(), backend.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
		} else {
			h.Log.Warn("load request failed", zap.String("request", requestID.String()), zap.Error(d.Err()))
		}
		templates.Render(w, r, "request_view", data)
		return
	}

	rq := d.Value()
	data.Title = rq.Title
	data.Description = htmlsanitize.Description(rq.Description)
	data.Actionable = rq.Status.Actionable()
	data.SourceName, data.TargetName = rq.SourceBranchID.String(), rq.TargetBranchID.String()

	if ws, err := sess.Workspace(ctx, spaceID); err == nil {
		data.WorkspaceTitle = ws.Title
		for _, b := range ws.Branches {
			switch b.ID {
			case rq.SourceBranchID:
				data.SourceName = b.Name
			case rq.TargetBranchID:
				data.TargetName = b.Name
			}
		}
	} else if ctx.Err() == nil {
		h.Log.Warn("load workspace for request failed", zap.String("workspace", spaceID.String()), zap.Error(err))
	}

	templates.Render(w, r, "request_view", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/requests/{rid}/close, /merge                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleClose closes the request without merging.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "request_close", func(s *backend.Session) func(context.Context, models.ID, models.ID) error {
		return s.CloseRequest
	})
}

// HandleMerge force-merges the source branch into the target.
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "request_merge", func(s *backend.Session) func(context.Context, models.ID, models.ID) error {
		return s.MergeRequest
	})
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, op string, pick func(*backend.Session) func(context.Context, models.ID, models.ID) error) {
	if err := r.ParseForm(); err != nil {
		spaceID, requestID := ids(r)
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", requestURL(spaceID, requestID))
		return
	}
	spaceID, requestID := ids(r)
	sess := h.Backend.Session(auth.CredentialFrom(r))

	rq, err := sess.Request(r.Context(), spaceID, requestID)
	if err != nil {
		if h.ErrLog.SessionExpired(w, r, err) {
			return
		}
		h.render(w, r, mutate.Failure(err, "This request no longer exists."))
		return
	}
	if !rq.Status.Actionable() {
		h.render(w, r, fmt.Sprintf("This request is already %s.", rq.Status))
		return
	}

	call := pick(sess)
	err = h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryWorkspace,
		Target:   "workspace:" + spaceID.String() + "/request:" + requestID.String(),
	}, func(ctx context.Context) error {
		return call(ctx, spaceID, requestID)
	})
	switch {
	case err == nil, errors.Is(err, mutate.ErrDuplicate):
		http.Redirect(w, r, requestURL(spaceID, requestID), http.StatusSeeOther)
	case h.ErrLog.SessionExpired(w, r, err):
	default:
		h.Log.Warn("request action failed", zap.String("op", op), zap.Error(err))
		h.render(w, r, mutate.Failure(err, "This request no longer exists."))
	}
}
