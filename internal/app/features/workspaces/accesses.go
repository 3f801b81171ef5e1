// internal/app/features/workspaces/accesses.go
package workspaces

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type userGrantInput struct {
	Email string `validate:"required,email" label:"Email"`
}

type departmentGrantInput struct {
	Department string `validate:"notblank,max=200" label:"Department" msg:"Enter a department name"`
}

// grant runs one access change for workspace {id}. Failures re-render the
// workspace with dialog k open, or with a notice when k is None.
func (h *Handler) grant(w http.ResponseWriter, r *http.Request, op string, k modal.Kind, form shareForm, notFound string, call func(ctx context.Context, id models.ID) error) {
	id := models.ID(chi.URLParam(r, "id"))
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryWorkspace,
		Target:   target(id),
	}, func(ctx context.Context) error {
		return call(ctx, id)
	})
	h.finish(w, r, op, err, workspaceURL(id), notFound, func(msg string) {
		if k == modal.None {
			h.renderDetail(w, r, modal.State{}, form, msg)
			return
		}
		h.renderDetail(w, r, modal.Failed(k, msg), form, "")
	})
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", workspaceURL(models.ID(chi.URLParam(r, "id"))))
		return false
	}
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/accesses/user[/remove]                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleGrantUser shares the workspace with one account by email.
func (h *Handler) HandleGrantUser(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := shareForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		ReadOnly: r.FormValue("read_only") != "",
	}
	if res := inputval.Validate(userGrantInput{Email: form.Email}); res.HasErrors() {
		h.renderDetail(w, r, modal.Failed(modal.ShareUser, res.First()), form, "")
		return
	}
	sess := h.session(r)
	h.grant(w, r, "access_user_grant", modal.ShareUser, form, "User does not exist", func(ctx context.Context, id models.ID) error {
		return sess.GrantUser(ctx, id, form.Email, form.ReadOnly)
	})
}

// HandleRevokeUser removes a user grant.
func (h *Handler) HandleRevokeUser(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	sess := h.session(r)
	h.grant(w, r, "access_user_revoke", modal.None, shareForm{}, "User does not exist", func(ctx context.Context, id models.ID) error {
		return sess.RevokeUser(ctx, id, email)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/accesses/department[/remove]                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleGrantDepartment shares the workspace with every member of a
// department.
func (h *Handler) HandleGrantDepartment(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := shareForm{
		Department: strings.TrimSpace(r.FormValue("department")),
		ReadOnly:   r.FormValue("read_only") != "",
	}
	if res := inputval.Validate(departmentGrantInput{Department: form.Department}); res.HasErrors() {
		h.renderDetail(w, r, modal.Failed(modal.ShareDepartment, res.First()), form, "")
		return
	}
	sess := h.session(r)
	h.grant(w, r, "access_department_grant", modal.ShareDepartment, form, "Department does not exist", func(ctx context.Context, id models.ID) error {
		return sess.GrantDepartment(ctx, id, form.Department, form.ReadOnly)
	})
}

// HandleRevokeDepartment removes a department grant.
func (h *Handler) HandleRevokeDepartment(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	name := strings.TrimSpace(r.FormValue("department"))
	sess := h.session(r)
	h.grant(w, r, "access_department_revoke", modal.None, shareForm{}, "Department does not exist", func(ctx context.Context, id models.ID) error {
		return sess.RevokeDepartment(ctx, id, name)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/accesses/public[/remove]                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleGrantPublic adds the workspace's public link. A workspace has at
// most one, so the request is refused when the link already exists.
func (h *Handler) HandleGrantPublic(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := models.ID(chi.URLParam(r, "id"))
	sess := h.session(r)

	grants, err := sess.Accesses(r.Context(), id)
	if err != nil {
		if h.ErrLog.SessionExpired(w, r, err) {
			return
		}
		h.renderDetail(w, r, modal.Failed(modal.SharePublic, mutate.Failure(err, "")), shareForm{}, "")
		return
	}
	if models.HasPublicLink(grants) {
		h.renderDetail(w, r, modal.State{}, shareForm{}, "This workspace already has a public link.")
		return
	}

	h.grant(w, r, "access_public_grant", modal.SharePublic, shareForm{}, "", func(ctx context.Context, id models.ID) error {
		return sess.GrantURL(ctx, id)
	})
}

// HandleRevokePublic removes the public link.
func (h *Handler) HandleRevokePublic(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	sess := h.session(r)
	h.grant(w, r, "access_public_revoke", modal.None, shareForm{}, "", func(ctx context.Context, id models.ID) error {
		return sess.RevokeURL(ctx, id)
	})
}
