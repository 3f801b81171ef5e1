// internal/domain/models/branch.go
package models

// BranchStatus is the backend's branch state. Only Active branches are listed.
type BranchStatus int

const (
	BranchActive BranchStatus = 1
	BranchMerged BranchStatus = 2
)

func (s BranchStatus) String() string {
	switch s {
	case BranchActive:
		return "Active"
	case BranchMerged:
		return "Merged"
	default:
		return "Unknown"
	}
}

// MarshalJSON writes the status as a quoted number, as the backend does.
func (s BranchStatus) MarshalJSON() ([]byte, error) { return encodeCode(int(s)), nil }

// UnmarshalJSON accepts "1" as well as 1.
func (s *BranchStatus) UnmarshalJSON(b []byte) error {
	n, err := decodeCode(b)
	*s = BranchStatus(n)
	return err
}

// BranchSummary is the branch entry nested in a workspace detail.
type BranchSummary struct {
	ID     ID           `json:"id"`
	Name   string       `json:"name"`
	Status BranchStatus `json:"status"`
}

// Branch is the full branch view: its place in the tree, its single document
// reference, and the requests it takes part in.
type Branch struct {
	ID          ID           `json:"id"`
	Name        string       `json:"name"`
	Parent      ID           `json:"parent"`
	ParentName  string       `json:"parentName"`
	AuthorName  string       `json:"authorName"`
	TaskID      string       `json:"task_id"`
	Document    string       `json:"document"`
	DocumentID  ID           `json:"document_id"`
	Status      BranchStatus `json:"status"`
	Requests    []Request    `json:"requests"`
	WorkspaceID ID           `json:"-"`
}

// IsRoot reports whether b is the workspace's root (main) branch.
func (b Branch) IsRoot() bool {
	return b.Parent == RootParent
}
