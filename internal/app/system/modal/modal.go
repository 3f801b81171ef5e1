// Package modal tracks which dialog, if any, a page shows. A page has a
// single Kind, so two dialogs can never be open at once.
package modal

import (
	"net/http"
	"net/url"
	"strings"
)

// Param is the query/form parameter carrying the active dialog.
const Param = "modal"

// Kind names one dialog.
type Kind int

const (
	None Kind = iota
	NewWorkspace
	ArchiveWorkspace
	DeleteWorkspace
	ChangeOwner
	CopyBranch
	NewBranch
	DeleteBranch
	NewRequest
	RenameDocument
	UploadDocument
	ShareUser
	ShareDepartment
	SharePublic
	NewDepartment
	AddMember
	DeleteUser
)

var names = map[Kind]string{
	None:             "",
	NewWorkspace:     "new-workspace",
	ArchiveWorkspace: "archive-workspace",
	DeleteWorkspace:  "delete-workspace",
	ChangeOwner:      "change-owner",
	CopyBranch:       "copy-branch",
	NewBranch:        "new-branch",
	DeleteBranch:     "delete-branch",
	NewRequest:       "new-request",
	RenameDocument:   "rename-document",
	UploadDocument:   "upload-document",
	ShareUser:        "share-user",
	ShareDepartment:  "share-department",
	SharePublic:      "share-public",
	NewDepartment:    "new-department",
	AddMember:        "add-member",
	DeleteUser:       "delete-user",
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(names))
	for k, n := range names {
		m[n] = k
	}
	return m
}()

func (k Kind) String() string { return names[k] }

// Parse maps a parameter value to a Kind. Unknown values are None.
func Parse(s string) Kind {
	return byName[strings.ToLower(strings.TrimSpace(s))]
}

// FromRequest reads the active dialog from the query string, falling back
// to a posted form field.
func FromRequest(r *http.Request) Kind {
	if v := r.URL.Query().Get(Param); v != "" {
		return Parse(v)
	}
	if r.Method == http.MethodPost {
		return Parse(r.PostFormValue(Param))
	}
	return None
}

// Open returns target with the dialog parameter set to k.
func Open(target string, k Kind) string {
	if k == None {
		return Close(target)
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(Param, k.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// Close returns target with the dialog parameter removed.
func Close(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	if !q.Has(Param) {
		return target
	}
	q.Del(Param)
	u.RawQuery = q.Encode()
	return u.String()
}

// State is the dialog view model embedded by pages.
type State struct {
	Active Kind
	Error  string // inline message for the active dialog
}

// Is reports whether k is the open dialog.
func (s State) Is(k Kind) bool { return s.Active == k }

// IsNamed is Is for templates, which pass the dialog by name.
func (s State) IsNamed(name string) bool { return s.Active != None && s.Active == Parse(name) }

// Failed returns a State keeping k open with msg shown inline.
func Failed(k Kind, msg string) State { return State{Active: k, Error: msg} }
