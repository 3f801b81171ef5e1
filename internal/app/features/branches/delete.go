// internal/app/features/branches/delete.go
package branches

import (
	"context"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/branches/{bid}/delete                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes the branch and moves the user to its parent. The
// root branch is refused without asking the backend.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	spaceID, branchID := ids(r)
	reRender := func(msg string) {
		h.renderBranch(w, r, modal.Failed(modal.DeleteBranch, msg), branchForm{})
	}

	b, ok := h.loadBranch(w, r, modal.DeleteBranch, branchForm{})
	if !ok {
		return
	}
	if b.IsRoot() {
		reRender(mutate.Failure(backend.ErrRootBranch, ""))
		return
	}

	sess := h.session(r)
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "branch_delete",
		Category: audit.CategoryWorkspace,
		Target:   target(spaceID, branchID),
	}, func(ctx context.Context) error {
		return sess.DeleteBranch(ctx, spaceID, b)
	})
	h.finish(w, r, "branch_delete", err, branchURL(spaceID, b.Parent), "", reRender)
}
