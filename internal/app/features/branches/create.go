// internal/app/features/branches/create.go
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

type branchInput struct {
	Name string `validate:"notblank,max=200" label:"Name" msg:"Enter a branch name"`
}

type requestInput struct {
	Title       string `validate:"notblank,max=200" label:"Title" msg:"Enter a title"`
	Description string `validate:"max=4000" label:"Description"`
	Target      string `validate:"required" label:"Target" msg:"Choose a target branch"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/branches/{bid}/branches                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateBranch creates a child of the current branch. The child
// starts from the current branch's document.
func (h *Handler) HandleCreateBranch(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	spaceID, branchID := ids(r)
	form := branchForm{Name: strings.TrimSpace(r.FormValue("name"))}
	reRender := func(msg string) {
		h.renderBranch(w, r, modal.Failed(modal.NewBranch, msg), form)
	}

	if res := inputval.Validate(branchInput{Name: form.Name}); res.HasErrors() {
		reRender(res.First())
		return
	}

	parent, ok := h.loadBranch(w, r, modal.NewBranch, form)
	if !ok {
		return
	}

	sess := h.session(r)
	var newID models.ID
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "branch_create",
		Category: audit.CategoryWorkspace,
		Target:   target(spaceID, branchID),
	}, func(ctx context.Context) error {
		id, err := sess.CreateBranch(ctx, spaceID, parent, form.Name)
		newID = id
		return err
	})

	dest := branchURL(spaceID, branchID)
	if err == nil && !newID.IsZero() {
		dest = branchURL(spaceID, newID)
	}
	h.finish(w, r, "branch_create", err, dest, "", reRender)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/branches/{bid}/requests                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateRequest opens a request from the current branch into another
// branch of the same workspace. The root branch cannot be a source.
func (h *Handler) HandleCreateRequest(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	spaceID, branchID := ids(r)
	form := branchForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		TargetID:    models.ID(strings.TrimSpace(r.FormValue("target"))),
	}
	reRender := func(msg string) {
		h.renderBranch(w, r, modal.Failed(modal.NewRequest, msg), form)
	}

	if res := inputval.Validate(requestInput{
		Title:       form.Title,
		Description: form.Description,
		Target:      form.TargetID.String(),
	}); res.HasErrors() {
		reRender(res.First())
		return
	}
	if form.TargetID == branchID {
		reRender("A request needs a different target branch.")
		return
	}

	src, ok := h.loadBranch(w, r, modal.NewRequest, form)
	if !ok {
		return
	}
	if src.IsRoot() {
		reRender("Requests cannot be opened from the root branch.")
		return
	}

	sess := h.session(r)
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "request_create",
		Category: audit.CategoryWorkspace,
		Target:   target(spaceID, branchID),
	}, func(ctx context.Context) error {
		_, err := sess.CreateRequest(ctx, spaceID, backend.NewRequest{
			Title:          form.Title,
			Description:    form.Description,
			SourceBranchID: branchID,
			TargetBranchID: form.TargetID,
		})
		return err
	})
	h.finish(w, r, "request_create", err, branchURL(spaceID, branchID), "Target branch does not exist", reRender)
}
