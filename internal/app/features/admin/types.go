// internal/app/features/admin/types.go
package admin

import (
	"time"

	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
)

const recentEvents = 20

type eventRow struct {
	Timestamp time.Time
	Category  string
	EventType string
	Actor     string
	Target    string
	Success   bool
	Reason    string
}

type overviewData struct {
	viewdata.BaseVM
	Workspaces viewstate.Collection[models.Workspace]
	Events     []eventRow
	EventsErr  string
	HasEvents  bool // false when audit rows are not stored

	Selected   *models.Workspace // the workspace named by ?ws=
	NextStatus []statusOption
	Owner      string
	Modal      modal.State
	Notice     string
	FormToken  string
}

// statusOption is a status the selected workspace may still move to.
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

type departmentsData struct {
	viewdata.BaseVM
	Departments viewstate.Collection[models.Department]
	Selected    string
	Members     viewstate.Collection[models.User]
	Candidates  []models.User
	Modal       modal.State
	Notice      string
	FormToken   string
	Form        departmentForm
}

type departmentForm struct {
	Name string
}

type userRow struct {
	models.User
	RoleName string
	IsSelf   bool
}

type usersData struct {
	viewdata.BaseVM
	Users     viewstate.Collection[userRow]
	Confirm   *userRow // the account named by ?modal=delete-user&uid=
	Modal     modal.State
	Notice    string
	FormToken string
}
