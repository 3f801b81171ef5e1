// internal/domain/models/user.go
package models

import "strings"

// Role values as the backend encodes them.
const (
	RoleAdmin            = "1"
	RoleClient           = "2"
	RoleHeadOfDepartment = "3"
)

// RoleName maps a backend role code to the name used by route guards.
// Unknown codes (or names already in that form) pass through lowercased.
func RoleName(code string) string {
	switch strings.TrimSpace(code) {
	case RoleAdmin:
		return "admin"
	case RoleClient:
		return "client"
	case RoleHeadOfDepartment:
		return "head"
	default:
		return strings.ToLower(strings.TrimSpace(code))
	}
}

// User is a backend account as listed by the admin endpoints.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// Department is a named grouping of users managed by an administrator.
type Department struct {
	Name string `json:"department_name"`
}

// SearchItem is one document hit with the workspace and branch that hold it.
type SearchItem struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	BranchID    ID     `json:"branch_id"`
	WorkspaceID ID     `json:"space_id"`
}
