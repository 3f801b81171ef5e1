// internal/app/features/workspaces/delete.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/delete                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete asks the backend to delete the workspace. The backend keeps
// it as a Deleted status; it simply stops appearing in the lists.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := models.ID(chi.URLParam(r, "id"))

	sess := h.session(r)
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "workspace_delete",
		Category: audit.CategoryWorkspace,
		Target:   target(id),
	}, func(ctx context.Context) error {
		return sess.DeleteWorkspace(ctx, id)
	})
	if err == nil {
		h.forgetWorkspace(r)
	}
	h.finish(w, r, "workspace_delete", err, "/workspaces", "", func(msg string) {
		h.renderDetail(w, r, modal.Failed(modal.DeleteWorkspace, msg), shareForm{}, "")
	})
}
