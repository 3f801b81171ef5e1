// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/paging"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	ID        string
	Timestamp time.Time
	Category  string
	EventType string
	Actor     string
	Target    string
	IP        string
	Success   bool
	Reason    string
	Details   map[string]string
}

// filters are the list's query parameters as entered.
type filters struct {
	Category  string
	EventType string
	Actor     string
	Outcome   string // "", "ok" or "failed"
	StartDate string
	EndDate   string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM

	Items []listItem
	filters

	// Filter options
	Categories []categoryOption
	EventTypes []string

	// Pagination
	Total   int64
	Range   paging.Range
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string
	Label string
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Sign in"},
		{Value: audit.CategoryWorkspace, Label: "Workspaces"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
	}
}

func validCategory(c string) bool {
	for _, o := range allCategories() {
		if o.Value == c {
			return true
		}
	}
	return false
}

// eventTypesForCategory suggests event types for a category. Workspace and
// admin events are named after the write that produced them.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventLogout,
		audit.EventRegistered,
		audit.EventRegisterFailed,
		audit.EventSessionRejected,
	}
	workspaceEvents := []string{
		"workspace_create", "workspace_archive", "workspace_update", "workspace_delete",
		"branch_create", "branch_delete", "branch_copy",
		"document_rename", "document_upload",
		"request_create", "request_close", "request_merge",
		"access_user_grant", "access_user_revoke",
		"access_department_grant", "access_department_revoke",
		"access_public_grant", "access_public_revoke",
	}
	adminEvents := []string{
		"department_create", "department_delete",
		"department_members_add", "department_members_remove",
		"user_delete",
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryWorkspace:
		return append(workspaceEvents, audit.EventDuplicateDropped)
	case audit.CategoryAdmin:
		return append(adminEvents, audit.EventDuplicateDropped)
	default:
		all := make([]string, 0, len(authEvents)+len(workspaceEvents)+len(adminEvents)+1)
		all = append(all, authEvents...)
		all = append(all, workspaceEvents...)
		all = append(all, adminEvents...)
		return append(all, audit.EventDuplicateDropped)
	}
}
