// internal/app/features/admin/workspaces.go
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func workspaceTarget(id models.ID) string { return "workspace:" + id.String() }

// findWorkspace looks id up in the admin listing.
func findWorkspace(ctx context.Context, sess *backend.Session, id models.ID) (models.Workspace, bool, error) {
	all, err := sess.AllWorkspaces(ctx)
	if err != nil {
		return models.Workspace{}, false, err
	}
	for _, ws := range all {
		if ws.ID == id {
			return ws, true, nil
		}
	}
	return models.Workspace{}, false, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/workspaces/{id}/update                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdateWorkspace changes the owner and/or status of any workspace.
// The status still only moves forward.
func (h *Handler) HandleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, overviewPath) {
		return
	}
	id := models.ID(chi.URLParam(r, "id"))
	owner := strings.TrimSpace(r.FormValue("owner"))
	rawStatus := strings.TrimSpace(r.FormValue("status"))
	reRender := func(msg string) {
		h.renderOverview(w, r, id, modal.Failed(modal.ChangeOwner, msg), owner)
	}

	var next models.WorkspaceStatus
	if rawStatus != "" {
		n, err := strconv.Atoi(rawStatus)
		if err != nil {
			reRender("Choose a valid status.")
			return
		}
		next = models.WorkspaceStatus(n)
	}
	if owner == "" && next == 0 {
		reRender("Enter a new owner or choose a status.")
		return
	}

	ctx := r.Context()
	sess := h.session(r)
	if next != 0 {
		ws, found, err := findWorkspace(ctx, sess, id)
		if err != nil {
			if h.ErrLog.SessionExpired(w, r, err) {
				return
			}
			reRender(mutate.Failure(err, ""))
			return
		}
		if !found {
			reRender("Workspace does not exist.")
			return
		}
		if !ws.Status.CanBecome(next) {
			reRender(fmt.Sprintf("A workspace cannot go from %s to %s.", ws.Status, next))
			return
		}
	}

	const op = "admin_workspace_update"
	err := h.Mutate.Do(ctx, r, mutate.Op{
		Name:     op,
		Category: audit.CategoryAdmin,
		Target:   workspaceTarget(id),
	}, func(ctx context.Context) error {
		return sess.UpdateWorkspace(ctx, id, backend.WorkspaceUpdate{Status: next, Owner: owner})
	})
	h.finish(w, r, op, err, overviewPath, "User does not exist", reRender)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/workspaces/{id}/delete                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDeleteWorkspace deletes any workspace on the admin's authority.
func (h *Handler) HandleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, overviewPath) {
		return
	}
	id := models.ID(chi.URLParam(r, "id"))
	sess := h.session(r)

	const op = "admin_workspace_delete"
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryAdmin,
		Target:   workspaceTarget(id),
	}, func(ctx context.Context) error {
		return sess.DeleteWorkspace(ctx, id)
	})
	h.finish(w, r, op, err, overviewPath, "Workspace does not exist", func(msg string) {
		h.renderOverview(w, r, id, modal.Failed(modal.DeleteWorkspace, msg), "")
	})
}
