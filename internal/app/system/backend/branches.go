package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

// Branch loads a branch with its document reference and requests.
func (s *Session) Branch(ctx context.Context, spaceID, branchID models.ID) (models.Branch, error) {
	var out models.Branch
	path := "/workspace/" + seg(spaceID) + "/view/" + seg(branchID)
	if err := s.getJSON(ctx, "get branch", path, nil, &out); err != nil {
		return models.Branch{}, err
	}
	out.WorkspaceID = spaceID
	if out.ID.IsZero() {
		out.ID = branchID
	}
	return out, nil
}

type newBranch struct {
	Name           string    `json:"name"`
	DocumentID     models.ID `json:"document_id"`
	ParentBranchID models.ID `json:"parent_branch_id"`
}

// CreateBranch creates a child of parent. The child starts from the
// parent's current document reference.
func (s *Session) CreateBranch(ctx context.Context, spaceID models.ID, parent models.Branch, name string) (models.ID, error) {
	body := newBranch{
		Name:           name,
		DocumentID:     parent.DocumentID,
		ParentBranchID: parent.ID,
	}
	var out createdID
	path := "/workspace/" + seg(spaceID) + "/add_branch"
	if err := s.send(ctx, "create branch", http.MethodPost, path, nil, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteBranch removes b from spaceID. A root branch is refused before any
// request is sent.
func (s *Session) DeleteBranch(ctx context.Context, spaceID models.ID, b models.Branch) error {
	if b.IsRoot() {
		return fmt.Errorf("delete branch %s: %w", b.ID, ErrRootBranch)
	}
	path := "/workspace/" + seg(spaceID) + "/branch/" + seg(b.ID)
	return s.send(ctx, "delete branch", http.MethodDelete, path, nil, nil, nil)
}
