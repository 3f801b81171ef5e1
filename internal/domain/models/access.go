// internal/domain/models/access.go
package models

// AccessKind names the three grant shapes the backend stores.
type AccessKind string

const (
	AccessUser       AccessKind = "UserAccess"
	AccessDepartment AccessKind = "DepartmentAccess"
	AccessURL        AccessKind = "UrlAccess"
)

// AccessGrant is one entry from /accesses/{id}. Content is the email for a
// user grant, the department name for a department grant, and empty for a
// public link.
type AccessGrant struct {
	Kind    AccessKind `json:"class"`
	Content string     `json:"content"`
	Type    string     `json:"type"` // "View" or "Edit"
}

// ReadOnly reports whether the grant is view-only.
func (g AccessGrant) ReadOnly() bool {
	return g.Type == "View"
}

// HasPublicLink reports whether a public-link grant is already present.
// At most one may exist per workspace.
func HasPublicLink(grants []AccessGrant) bool {
	for _, g := range grants {
		if g.Kind == AccessURL {
			return true
		}
	}
	return false
}
