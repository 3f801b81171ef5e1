// internal/app/features/branches/view.go
package branches

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func ids(r *http.Request) (spaceID, branchID models.ID) {
	return models.ID(chi.URLParam(r, "id")), models.ID(chi.URLParam(r, "bid"))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /workspaces/{id}/branches/{bid}                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeBranch renders one branch: its document, its place in the tree and
// the requests it takes part in.
func (h *Handler) ServeBranch(w http.ResponseWriter, r *http.Request) {
	h.renderBranch(w, r, modal.State{Active: modal.FromRequest(r)}, branchForm{})
}

func (h *Handler) renderBranch(w http.ResponseWriter, r *http.Request, st modal.State, form branchForm) {
	ctx := r.Context()
	spaceID, branchID := ids(r)
	sess := h.session(r)

	d, ok := viewstate.LoadDetail(ctx, branchID.String(), func(ctx context.Context) (models.Branch, error) {
		return sess.Branch(ctx, spaceID, branchID)
	})
	if !ok {
		return
	}

	data := branchData{
		BaseVM:      viewdata.NewBaseVM(r, "Branch", "/workspaces/"+spaceID.String()),
		WorkspaceID: spaceID,
		Branch:      d,
		Modal:       st,
		FormToken:   mutate.NewToken(),
		Form:        form,
		MaxUpload:   filexfer.SizeLabel(h.MaxUploadBytes),
	}

	if !d.IsLoaded() {
		if h.ErrLog.SessionExpired(w, r, d.Err()) {
			return
		}
		if errors.Is(d.Err(), backend.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
		} else {
			h.Log.Warn("load branch failed", zap.String("branch", branchID.String()), zap.Error(d.Err()))
		}
		data.Modal = modal.State{}
		templates.Render(w, r, "branch_view", data)
		return
	}

	b := d.Value()
	data.Title = b.Name
	data.IsRoot = b.IsRoot()

	// The workspace supplies the title and the request targets. The branch
	// is still shown when it cannot be loaded.
	ws, err := sess.Workspace(ctx, spaceID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		h.Log.Warn("load workspace for branch failed", zap.String("workspace", spaceID.String()), zap.Error(err))
	} else {
		data.WorkspaceTitle = ws.Title
		for _, t := range ws.VisibleBranches() {
			if t.ID != b.ID {
				data.Targets = append(data.Targets, t)
			}
		}
	}

	// A root branch has no parent to merge into and cannot be deleted.
	if data.IsRoot && (st.Is(modal.NewRequest) || st.Is(modal.DeleteBranch)) {
		data.Modal = modal.State{}
	}

	templates.Render(w, r, "branch_view", data)
}

// loadBranch fetches the branch a write applies to. It writes the failure
// response itself and reports whether the caller may continue.
func (h *Handler) loadBranch(w http.ResponseWriter, r *http.Request, k modal.Kind, form branchForm) (models.Branch, bool) {
	spaceID, branchID := ids(r)
	b, err := h.session(r).Branch(r.Context(), spaceID, branchID)
	if err != nil {
		if h.ErrLog.SessionExpired(w, r, err) {
			return models.Branch{}, false
		}
		h.renderBranch(w, r, modal.Failed(k, viewstate.ErrorMessage(err)), form)
		return models.Branch{}, false
	}
	return b, true
}
