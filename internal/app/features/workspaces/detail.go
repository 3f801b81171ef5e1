// internal/app/features/workspaces/detail.go
package workspaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /workspaces/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDetail renders a workspace with its branch tree and requests. The
// owner also sees the access grants and the workspace actions.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, modal.State{Active: modal.FromRequest(r)}, shareForm{}, "")
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, st modal.State, form shareForm, notice string) {
	ctx := r.Context()
	id := models.ID(chi.URLParam(r, "id"))
	sess := h.session(r)

	d, ok := viewstate.LoadDetail(ctx, id.String(), func(ctx context.Context) (models.Workspace, error) {
		return sess.Workspace(ctx, id)
	})
	if !ok {
		return
	}

	data := detailData{
		BaseVM:    viewdata.NewBaseVM(r, "Workspace", "/workspaces"),
		Workspace: d,
		Notice:    notice,
		Modal:     st,
		FormToken: mutate.NewToken(),
		Share:     form,
	}

	if !d.IsLoaded() {
		if h.ErrLog.SessionExpired(w, r, d.Err()) {
			return
		}
		if errors.Is(d.Err(), backend.ErrNotFound) {
			h.forgetWorkspace(r)
			w.WriteHeader(http.StatusNotFound)
		} else {
			h.Log.Warn("load workspace failed", zap.String("workspace", id.String()), zap.Error(d.Err()))
		}
		data.Modal = modal.State{}
		templates.Render(w, r, "workspace_detail", data)
		return
	}

	ws := d.Value()
	data.Title = ws.Title
	data.Description = htmlsanitize.Description(ws.Description)
	data.Requests = ws.Requests
	data.IsOwner = ws.OwnedBy(username(r))
	for _, b := range ws.VisibleBranches() {
		data.Branches = append(data.Branches, branchRow{ID: b.ID, Name: b.Name, IsMain: b.ID == ws.MainBranch})
	}
	h.rememberWorkspace(r, id)

	if data.IsOwner {
		acc, ok := viewstate.FetchCollection(ctx, "This workspace is not shared.", func(ctx context.Context) ([]models.AccessGrant, error) {
			return sess.Accesses(ctx, id)
		})
		if !ok {
			return
		}
		data.Accesses = acc
		data.HasPublicLink = models.HasPublicLink(acc.Items)
		data.NextStatus = statusOptions(ws.Status)
	} else {
		// Owner-only dialogs cannot be opened by anyone else.
		data.Modal = modal.State{}
	}
	if data.HasPublicLink && data.Modal.Is(modal.SharePublic) {
		data.Modal = modal.State{}
	}

	templates.Render(w, r, "workspace_detail", data)
}
