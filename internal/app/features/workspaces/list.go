// internal/app/features/workspaces/list.go
package workspaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /workspaces                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList renders the owned, shared and public workspace lists. A
// workspace chosen with ?ws= (or remembered from an earlier visit) is
// summarised beside the lists.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, modal.State{Active: modal.FromRequest(r)}, createForm{})
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, st modal.State, form createForm) {
	ctx := r.Context()
	sess := h.session(r)
	archived := query.Get(r, "archived") == "true"

	ownedEmpty := "You have no workspaces yet."
	if archived {
		ownedEmpty = "You have no archived workspaces."
	}
	owned, ok := viewstate.FetchCollection(ctx, ownedEmpty, func(ctx context.Context) ([]models.Workspace, error) {
		return sess.OwnedWorkspaces(ctx, archived)
	})
	if !ok {
		return
	}
	access, ok := viewstate.FetchCollection(ctx, "Nothing has been shared with you.", sess.AccessWorkspaces)
	if !ok {
		return
	}
	open, ok := viewstate.FetchCollection(ctx, "There are no public workspaces.", sess.OpenWorkspaces)
	if !ok {
		return
	}
	if err := viewstate.Rejected(owned.Cause(), access.Cause(), open.Cause()); h.ErrLog.SessionExpired(w, r, err) {
		return
	}

	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, "Workspaces", "/"),
		Owned:     owned,
		Access:    access,
		Open:      open,
		Archived:  archived,
		Modal:     st,
		FormToken: mutate.NewToken(),
		Form:      form,
		MaxUpload: filexfer.SizeLabel(h.MaxUploadBytes),
	}

	selected := models.ID(query.Get(r, "ws"))
	explicit := !selected.IsZero()
	if !explicit {
		selected = h.lastWorkspace(r)
	}
	if !selected.IsZero() {
		d, ok := viewstate.LoadDetail(ctx, selected.String(), func(ctx context.Context) (models.Workspace, error) {
			return sess.Workspace(ctx, selected)
		})
		if !ok {
			return
		}
		switch {
		case d.IsLoaded():
			data.Selected = d
			data.Description = htmlsanitize.Description(d.Value().Description)
			if explicit {
				h.rememberWorkspace(r, selected)
			}
		case errors.Is(d.Err(), backend.ErrNotFound):
			// A remembered workspace that is gone is dropped quietly.
			h.forgetWorkspace(r)
			if explicit {
				data.Selected = d
			}
		default:
			h.Log.Warn("load selected workspace failed", zap.String("workspace", selected.String()), zap.Error(d.Err()))
			data.Selected = d
		}
	}

	templates.Render(w, r, "workspace_list", data)
}
