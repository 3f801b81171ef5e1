// internal/app/features/workspaces/status.go
package workspaces

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
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/archive                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleArchive moves the workspace to Archived.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := models.ID(chi.URLParam(r, "id"))

	sess := h.session(r)
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "workspace_archive",
		Category: audit.CategoryWorkspace,
		Target:   target(id),
	}, func(ctx context.Context) error {
		return sess.ArchiveWorkspace(ctx, id)
	})
	h.finish(w, r, "workspace_archive", err, workspaceURL(id), "", func(msg string) {
		h.renderDetail(w, r, modal.Failed(modal.ArchiveWorkspace, msg), shareForm{}, "")
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/update                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate changes the owner and/or the status from the change-owner
// dialog. A status may only move forward.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := models.ID(chi.URLParam(r, "id"))

	owner := strings.TrimSpace(r.FormValue("owner"))
	rawStatus := strings.TrimSpace(r.FormValue("status"))
	reRender := func(msg string) {
		h.renderDetail(w, r, modal.Failed(modal.ChangeOwner, msg), shareForm{Owner: owner}, "")
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
		d, ok := viewstate.LoadDetail(ctx, id.String(), func(ctx context.Context) (models.Workspace, error) {
			return sess.Workspace(ctx, id)
		})
		if !ok {
			return
		}
		if !d.IsLoaded() {
			if h.ErrLog.SessionExpired(w, r, d.Err()) {
				return
			}
			reRender(d.ErrMessage())
			return
		}
		if cur := d.Value().Status; !cur.CanBecome(next) {
			reRender(fmt.Sprintf("A workspace cannot go from %s to %s.", cur, next))
			return
		}
	}

	err := h.Mutate.Do(ctx, r, mutate.Op{
		Name:     "workspace_update",
		Category: audit.CategoryWorkspace,
		Target:   target(id),
	}, func(ctx context.Context) error {
		return sess.UpdateWorkspace(ctx, id, backend.WorkspaceUpdate{Status: next, Owner: owner})
	})

	dest := workspaceURL(id)
	if owner != "" && owner != username(r) {
		// The workspace now belongs to someone else.
		dest = "/workspaces"
	}
	if next == models.WorkspaceDeleted {
		dest = "/workspaces"
	}
	h.finish(w, r, "workspace_update", err, dest, "User does not exist", reRender)
}
