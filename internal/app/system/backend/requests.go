package backend

import (
	"context"
	"net/http"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

// NewRequest is the payload for proposing a merge between two branches.
type NewRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SourceBranchID models.ID `json:"source_branch_id"`
	TargetBranchID models.ID `json:"target_branch_id"`
}

// CreateRequest opens a request. The returned id is empty when the backend
// does not echo one.
func (s *Session) CreateRequest(ctx context.Context, spaceID models.ID, in NewRequest) (models.ID, error) {
	var out createdID
	path := "/workspace/" + seg(spaceID) + "/request"
	if err := s.send(ctx, "create request", http.MethodPost, path, nil, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Request loads one request.
func (s *Session) Request(ctx context.Context, spaceID, requestID models.ID) (models.Request, error) {
	var out models.Request
	path := "/workspace/" + seg(spaceID) + "/request/" + seg(requestID)
	if err := s.getJSON(ctx, "get request", path, nil, &out); err != nil {
		return models.Request{}, err
	}
	return out, nil
}

// CloseRequest closes a request without merging.
func (s *Session) CloseRequest(ctx context.Context, spaceID, requestID models.ID) error {
	path := "/workspace/" + seg(spaceID) + "/request/" + seg(requestID) + "/close"
	return s.send(ctx, "close request", http.MethodPost, path, nil, nil, nil)
}

// MergeRequest force-merges the source branch into the target.
func (s *Session) MergeRequest(ctx context.Context, spaceID, requestID models.ID) error {
	path := "/workspace/" + seg(spaceID) + "/request/" + seg(requestID) + "/force_merge"
	return s.send(ctx, "merge request", http.MethodPost, path, nil, nil, nil)
}
