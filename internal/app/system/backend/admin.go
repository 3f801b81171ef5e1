package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

type departmentBody struct {
	Name string `json:"department_name"`
}

type membersBody struct {
	Users []models.ID `json:"users"`
}

// Departments lists every department.
func (s *Session) Departments(ctx context.Context) ([]models.Department, error) {
	var out struct {
		Departments []models.Department `json:"departments"`
	}
	if err := s.getJSON(ctx, "list departments", "/department", nil, &out); err != nil {
		return nil, err
	}
	return out.Departments, nil
}

// CreateDepartment adds a department. The backend answers 400 for a
// duplicate name.
func (s *Session) CreateDepartment(ctx context.Context, name string) error {
	return s.send(ctx, "create department", http.MethodPost, "/department", nil, departmentBody{Name: name}, nil)
}

// DeleteDepartment removes a department. The backend answers 404 when it
// does not exist.
func (s *Session) DeleteDepartment(ctx context.Context, name string) error {
	return s.send(ctx, "delete department", http.MethodDelete, "/department", nil, departmentBody{Name: name}, nil)
}

// DepartmentMembers lists the users in a department.
func (s *Session) DepartmentMembers(ctx context.Context, department string) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	q := url.Values{"name": {department}}
	if err := s.getJSON(ctx, "list department members", "/department/users", q, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// AddMembers adds users to a department.
func (s *Session) AddMembers(ctx context.Context, department string, userIDs ...models.ID) error {
	q := url.Values{"name": {department}}
	return s.send(ctx, "add department members", http.MethodPost, "/department/users", q, membersBody{Users: userIDs}, nil)
}

// RemoveMembers removes users from a department.
func (s *Session) RemoveMembers(ctx context.Context, department string, userIDs ...models.ID) error {
	q := url.Values{"name": {department}}
	return s.send(ctx, "remove department members", http.MethodDelete, "/department/users", q, membersBody{Users: userIDs}, nil)
}

// Users lists every account.
func (s *Session) Users(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := s.getJSON(ctx, "list users", "/user", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// DeleteUser removes an account.
func (s *Session) DeleteUser(ctx context.Context, id models.ID) error {
	return s.send(ctx, "delete user", http.MethodDelete, "/user/"+seg(id), nil, nil, nil)
}
