// internal/domain/models/request.go
package models

// RequestStatus is owned by the backend; the front-end only displays it.
type RequestStatus int

const (
	RequestOpen     RequestStatus = 1
	RequestInReview RequestStatus = 2
	RequestAccepted RequestStatus = 3
	RequestRejected RequestStatus = 4
	RequestClosed   RequestStatus = 5
)

func (s RequestStatus) String() string {
	switch s {
	case RequestOpen:
		return "Open"
	case RequestInReview:
		return "InReview"
	case RequestAccepted:
		return "Accepted"
	case RequestRejected:
		return "Rejected"
	case RequestClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

func (s *RequestStatus) UnmarshalJSON(b []byte) error {
	n, err := decodeCode(b)
	*s = RequestStatus(n)
	return err
}

// Actionable reports whether the request can still be closed or merged.
func (s RequestStatus) Actionable() bool {
	return s == RequestOpen || s == RequestInReview
}

// Request links a source branch to a target branch in the same workspace.
type Request struct {
	ID             ID            `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Status         RequestStatus `json:"status"`
	SourceBranchID ID            `json:"source_branch_id,omitempty"`
	TargetBranchID ID            `json:"target_branch_id,omitempty"`
	AuthorName     string        `json:"author_name,omitempty"`
}
