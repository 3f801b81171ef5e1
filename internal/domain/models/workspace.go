// internal/domain/models/workspace.go
package models

// WorkspaceStatus is the lifecycle state reported by the backend.
// Transitions are monotone: Active -> Archived -> Deleted.
type WorkspaceStatus int

const (
	WorkspaceActive   WorkspaceStatus = 1
	WorkspaceArchived WorkspaceStatus = 2
	WorkspaceDeleted  WorkspaceStatus = 3
)

func (s WorkspaceStatus) String() string {
	switch s {
	case WorkspaceActive:
		return "Active"
	case WorkspaceArchived:
		return "Archived"
	case WorkspaceDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// MarshalJSON writes the status as a quoted number, as the backend does.
func (s WorkspaceStatus) MarshalJSON() ([]byte, error) { return encodeCode(int(s)), nil }

// UnmarshalJSON accepts "2" as well as 2.
func (s *WorkspaceStatus) UnmarshalJSON(b []byte) error {
	n, err := decodeCode(b)
	*s = WorkspaceStatus(n)
	return err
}

// CanBecome reports whether moving from s to next keeps the lifecycle monotone.
func (s WorkspaceStatus) CanBecome(next WorkspaceStatus) bool {
	return next > s && next <= WorkspaceDeleted
}

// AccessType tells a viewer how they reached a workspace they don't own.
type AccessType int

const (
	AccessViaURL        AccessType = 1
	AccessViaUser       AccessType = 2
	AccessViaDepartment AccessType = 3
)

func (a AccessType) String() string {
	switch a {
	case AccessViaURL:
		return "link"
	case AccessViaUser:
		return "user"
	case AccessViaDepartment:
		return "department"
	default:
		return ""
	}
}

func (a *AccessType) UnmarshalJSON(b []byte) error {
	n, err := decodeCode(b)
	*a = AccessType(n)
	return err
}

// Workspace is the backend's representation of a workspace. List endpoints
// fill only the summary fields; the detail endpoint fills branches and requests.
type Workspace struct {
	ID          ID              `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Username    string          `json:"username"`
	Owner       string          `json:"owner,omitempty"` // set by the admin listing instead of username
	Status      WorkspaceStatus `json:"status"`
	BranchesNum int             `json:"branches_num"`
	MainBranch  ID              `json:"main_branch"`
	AccessType  AccessType      `json:"access_type,omitempty"`
	Branches    []BranchSummary `json:"branches"`
	Requests    []Request       `json:"requests"`
}

// OwnedBy reports whether username owns the workspace.
func (w Workspace) OwnedBy(username string) bool {
	return username != "" && w.OwnerName() == username
}

// OwnerName is the owning account's username, whichever field carried it.
func (w Workspace) OwnerName() string {
	if w.Owner != "" {
		return w.Owner
	}
	return w.Username
}

// VisibleBranches returns the branches still shown in the tree (not merged).
func (w Workspace) VisibleBranches() []BranchSummary {
	out := make([]BranchSummary, 0, len(w.Branches))
	for _, b := range w.Branches {
		if b.Status < BranchMerged {
			out = append(out, b)
		}
	}
	return out
}
