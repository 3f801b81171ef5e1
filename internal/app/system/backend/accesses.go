package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

// Accesses lists the grants on a workspace.
func (s *Session) Accesses(ctx context.Context, spaceID models.ID) ([]models.AccessGrant, error) {
	var out struct {
		Accesses []models.AccessGrant `json:"accesses"`
	}
	if err := s.getJSON(ctx, "get accesses", "/accesses/"+seg(spaceID), nil, &out); err != nil {
		return nil, err
	}
	return out.Accesses, nil
}

func viewOnly(readOnly bool) url.Values {
	return url.Values{"view_only": {strconv.FormatBool(readOnly)}}
}

// GrantUser shares a workspace with the user behind email. The backend
// answers 404 when no such user exists.
func (s *Session) GrantUser(ctx context.Context, spaceID models.ID, email string, readOnly bool) error {
	path := "/accesses/" + seg(spaceID) + "/email/" + segString(email)
	return s.send(ctx, "grant user", http.MethodPut, path, viewOnly(readOnly), nil, nil)
}

// RevokeUser removes a user grant.
func (s *Session) RevokeUser(ctx context.Context, spaceID models.ID, email string) error {
	path := "/accesses/" + seg(spaceID) + "/email/" + segString(email)
	return s.send(ctx, "revoke user", http.MethodDelete, path, nil, nil, nil)
}

// GrantDepartment shares a workspace with a department. The backend
// answers 404 when no such department exists.
func (s *Session) GrantDepartment(ctx context.Context, spaceID models.ID, department string, readOnly bool) error {
	path := "/accesses/" + seg(spaceID) + "/department/" + segString(department)
	return s.send(ctx, "grant department", http.MethodPut, path, viewOnly(readOnly), nil, nil)
}

// RevokeDepartment removes a department grant.
func (s *Session) RevokeDepartment(ctx context.Context, spaceID models.ID, department string) error {
	path := "/accesses/" + seg(spaceID) + "/department/" + segString(department)
	return s.send(ctx, "revoke department", http.MethodDelete, path, nil, nil, nil)
}

// GrantURL opens the workspace to anyone with the link.
func (s *Session) GrantURL(ctx context.Context, spaceID models.ID) error {
	return s.send(ctx, "grant url", http.MethodPut, "/accesses/"+seg(spaceID)+"/url", nil, nil, nil)
}

// RevokeURL removes the public link.
func (s *Session) RevokeURL(ctx context.Context, spaceID models.ID) error {
	return s.send(ctx, "revoke url", http.MethodDelete, "/accesses/"+seg(spaceID)+"/url", nil, nil, nil)
}
