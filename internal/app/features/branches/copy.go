// internal/app/features/branches/copy.go
package branches

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
)

type copyInput struct {
	Title       string `validate:"notblank,max=200" label:"Title" msg:"Enter a title"`
	Description string `validate:"max=4000" label:"Description"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/branches/{bid}/copy                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCopy starts a new workspace whose root holds this branch's
// document, then opens it.
func (h *Handler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	spaceID, branchID := ids(r)
	form := branchForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	reRender := func(msg string) {
		h.renderBranch(w, r, modal.Failed(modal.CopyBranch, msg), form)
	}

	if res := inputval.Validate(copyInput{Title: form.Title, Description: form.Description}); res.HasErrors() {
		reRender(res.First())
		return
	}

	sess := h.session(r)
	var newID models.ID
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "branch_copy",
		Category: audit.CategoryWorkspace,
		Target:   target(spaceID, branchID),
	}, func(ctx context.Context) error {
		id, err := sess.CopyBranch(ctx, spaceID, branchID, backend.WorkspaceCopy{
			Title:       form.Title,
			Description: form.Description,
		})
		newID = id
		return err
	})

	dest := "/workspaces"
	if err == nil && !newID.IsZero() {
		dest = "/workspaces/" + newID.String()
	}
	h.finish(w, r, "branch_copy", err, dest, "", reRender)
}
