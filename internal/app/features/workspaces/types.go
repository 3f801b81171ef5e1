// internal/app/features/workspaces/types.go
package workspaces

import (
	"html/template"

	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
)

// listData is the view model for the workspace list page.
type listData struct {
	viewdata.BaseVM
	Owned    viewstate.Collection[models.Workspace]
	Access   viewstate.Collection[models.Workspace]
	Open     viewstate.Collection[models.Workspace]
	Archived bool // owned list shows archived workspaces

	// Selected is nil when no workspace is selected.
	Selected    *viewstate.Detail[models.Workspace]
	Description template.HTML

	Modal     modal.State
	FormToken string
	Form      createForm
	MaxUpload string
}

// createForm holds the new-workspace fields for re-rendering after an error.
type createForm struct {
	Title       string
	Description string
}

// detailData is the view model for one workspace.
type detailData struct {
	viewdata.BaseVM
	Workspace   *viewstate.Detail[models.Workspace]
	Description template.HTML
	Branches    []branchRow
	Requests    []models.Request
	IsOwner     bool

	// Accesses is loaded for the owner only.
	Accesses      viewstate.Collection[models.AccessGrant]
	HasPublicLink bool

	// Notice reports a failed action that has no dialog of its own.
	Notice string

	Modal      modal.State
	FormToken  string
	Share      shareForm
	NextStatus []statusOption
}

// branchRow is a branch in the tree listing.
type branchRow struct {
	ID     models.ID
	Name   string
	IsMain bool
}

// shareForm holds grant fields for re-rendering after an error.
type shareForm struct {
	Email      string
	Department string
	ReadOnly   bool
	Owner      string
}

// statusOption is a status the workspace may still move to.
type statusOption struct {
	Value int
	Label string
}

func statusOptions(current models.WorkspaceStatus) []statusOption {
	var out []statusOption
	for _, s := range []models.WorkspaceStatus{models.WorkspaceArchived, models.WorkspaceDeleted} {
		if current.CanBecome(s) {
			out = append(out, statusOption{Value: int(s), Label: s.String()})
		}
	}
	return out
}
