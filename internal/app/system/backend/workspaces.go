package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

type workspaceList struct {
	Workspaces []models.Workspace `json:"workspaces"`
}

type createdID struct {
	ID models.ID `json:"id"`
}

// OwnedWorkspaces lists the caller's own workspaces. With archived set, the
// backend returns the archived ones instead.
func (s *Session) OwnedWorkspaces(ctx context.Context, archived bool) ([]models.Workspace, error) {
	var q url.Values
	if archived {
		q = url.Values{"archived": {"true"}}
	}
	var out workspaceList
	if err := s.getJSON(ctx, "owned workspaces", "/get_workspaces", q, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// AccessWorkspaces lists workspaces shared with the caller by user or
// department grant.
func (s *Session) AccessWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out workspaceList
	if err := s.getJSON(ctx, "access workspaces", "/get_workspaces_access", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// OpenWorkspaces lists workspaces reachable by public link.
func (s *Session) OpenWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out workspaceList
	if err := s.getJSON(ctx, "open workspaces", "/get_workspaces_open", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// AllWorkspaces lists every workspace. Admin only.
func (s *Session) AllWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out workspaceList
	if err := s.getJSON(ctx, "all workspaces", "/all_workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// Workspace loads one workspace with its branches and requests.
func (s *Session) Workspace(ctx context.Context, id models.ID) (models.Workspace, error) {
	var out models.Workspace
	if err := s.getJSON(ctx, "get workspace", "/get_workspace/"+seg(id), nil, &out); err != nil {
		return models.Workspace{}, err
	}
	return out, nil
}

// NewWorkspace is the payload for creating a workspace. DocumentData is a
// data URL holding the initial document.
type NewWorkspace struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DocumentName string `json:"document_name"`
	DocumentData string `json:"document_data"`
}

// CreateWorkspace creates a workspace with its root branch and first document.
func (s *Session) CreateWorkspace(ctx context.Context, in NewWorkspace) (models.ID, error) {
	var out createdID
	if err := s.send(ctx, "create workspace", http.MethodPost, "/workspace/add", nil, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ArchiveWorkspace moves a workspace to Archived.
func (s *Session) ArchiveWorkspace(ctx context.Context, id models.ID) error {
	return s.send(ctx, "archive workspace", http.MethodPost, "/workspace/"+seg(id)+"/archive", nil, nil, nil)
}

// WorkspaceUpdate changes status and/or owner. Zero fields are left alone.
// The status goes out as a quoted number: {"new_status":"2"}.
type WorkspaceUpdate struct {
	Status models.WorkspaceStatus `json:"new_status,omitempty"`
	Owner  string                 `json:"new_owner,omitempty"`
}

// UpdateWorkspace applies u to the workspace.
func (s *Session) UpdateWorkspace(ctx context.Context, id models.ID, u WorkspaceUpdate) error {
	return s.send(ctx, "update workspace", http.MethodPut, "/workspace/"+seg(id), nil, u, nil)
}

// DeleteWorkspace asks the backend to delete a workspace. The backend
// reports deletion as a status change.
func (s *Session) DeleteWorkspace(ctx context.Context, id models.ID) error {
	return s.send(ctx, "delete workspace", http.MethodDelete, "/workspace/"+seg(id), nil, nil, nil)
}

// WorkspaceCopy is the payload for copying a branch into a new workspace.
type WorkspaceCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CopyBranch creates a new workspace whose root holds branchID's document.
func (s *Session) CopyBranch(ctx context.Context, spaceID, branchID models.ID, in WorkspaceCopy) (models.ID, error) {
	var out createdID
	path := "/workspace/" + seg(spaceID) + "/copy/" + seg(branchID)
	if err := s.send(ctx, "copy branch", http.MethodPost, path, nil, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
