// internal/app/features/branches/types.go
package branches

import (
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
)

// branchData is the view model for the branch page.
type branchData struct {
	viewdata.BaseVM
	WorkspaceID    models.ID
	WorkspaceTitle string
	Branch         *viewstate.Detail[models.Branch]
	IsRoot         bool

	// Targets are the other branches a request can be opened against.
	Targets []models.BranchSummary

	Modal     modal.State
	FormToken string
	Form      branchForm
	MaxUpload string
}

// branchForm holds dialog fields for re-rendering after an error.
type branchForm struct {
	Name        string
	Title       string
	Description string
	TargetID    models.ID
}
