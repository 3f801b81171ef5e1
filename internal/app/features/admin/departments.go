// internal/app/features/admin/departments.go
package admin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

const departmentsPath = "/admin/departments"

type departmentInput struct {
	Name string `validate:"notblank,max=200" label:"Department" msg:"Enter a department name"`
}

func departmentURL(name string) string {
	if name == "" {
		return departmentsPath
	}
	return departmentsPath + "?" + url.Values{"d": {name}}.Encode()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/departments?d=                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDepartments lists departments. With d set, the department's members
// are listed next to the accounts that can still be added.
func (h *Handler) ServeDepartments(w http.ResponseWriter, r *http.Request) {
	h.renderDepartments(w, r, strings.TrimSpace(query.Get(r, "d")), modal.State{Active: modal.FromRequest(r)}, departmentForm{}, "")
}

func (h *Handler) renderDepartments(w http.ResponseWriter, r *http.Request, selected string, st modal.State, form departmentForm, notice string) {
	ctx := r.Context()
	sess := h.session(r)

	depts, ok := viewstate.FetchCollection(ctx, "There are no departments.", func(ctx context.Context) ([]models.Department, error) {
		return sess.Departments(ctx)
	})
	if !ok {
		return
	}

	data := departmentsData{
		BaseVM:      viewdata.NewBaseVM(r, "Departments", "/admin"),
		Departments: depts,
		Selected:    selected,
		Modal:       st,
		Notice:      notice,
		FormToken:   mutate.NewToken(),
		Form:        form,
	}

	var membersErr, usersErr error
	if selected != "" {
		members, ok := viewstate.FetchCollection(ctx, "This department has no members.", func(ctx context.Context) ([]models.User, error) {
			return sess.DepartmentMembers(ctx, selected)
		})
		if !ok {
			return
		}
		data.Members, membersErr = members, members.Cause()

		users, err := sess.Users(ctx)
		if ctx.Err() != nil {
			return
		}
		usersErr = err
		if err == nil {
			in := make(map[models.ID]bool, len(members.Items))
			for _, m := range members.Items {
				in[m.ID] = true
			}
			for _, u := range users {
				if !in[u.ID] {
					data.Candidates = append(data.Candidates, u)
				}
			}
		}
	}
	if h.ErrLog.SessionExpired(w, r, viewstate.Rejected(depts.Cause(), membersErr, usersErr)) {
		return
	}
	if selected == "" && st.Is(modal.AddMember) {
		data.Modal = modal.State{}
	}

	templates.Render(w, r, "admin_departments", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/departments, /admin/departments/delete                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate adds a department.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, departmentsPath) {
		return
	}
	form := departmentForm{Name: strings.TrimSpace(r.FormValue("name"))}
	if res := inputval.Validate(departmentInput{Name: form.Name}); res.HasErrors() {
		h.renderDepartments(w, r, "", modal.Failed(modal.NewDepartment, res.First()), form, "")
		return
	}

	sess := h.session(r)
	const op = "department_create"
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryAdmin,
		Target:   "department:" + form.Name,
	}, func(ctx context.Context) error {
		return sess.CreateDepartment(ctx, form.Name)
	})
	h.finish(w, r, op, err, departmentURL(form.Name), "", func(msg string) {
		h.renderDepartments(w, r, "", modal.Failed(modal.NewDepartment, msg), form, "")
	})
}

// HandleDelete removes a department.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, departmentsPath) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.renderDepartments(w, r, "", modal.State{}, departmentForm{}, "Choose a department.")
		return
	}

	sess := h.session(r)
	const op = "department_delete"
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryAdmin,
		Target:   "department:" + name,
	}, func(ctx context.Context) error {
		return sess.DeleteDepartment(ctx, name)
	})
	h.finish(w, r, op, err, departmentsPath, "Department does not exist", func(msg string) {
		h.renderDepartments(w, r, "", modal.State{}, departmentForm{}, msg)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/departments/members, /admin/departments/members/remove          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddMembers adds the checked accounts to department d.
func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, "department_members_add", modal.AddMember, func(s *backend.Session) func(context.Context, string, ...models.ID) error {
		return s.AddMembers
	})
}

// HandleRemoveMembers removes the given accounts from department d.
func (h *Handler) HandleRemoveMembers(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, "department_members_remove", modal.None, func(s *backend.Session) func(context.Context, string, ...models.ID) error {
		return s.RemoveMembers
	})
}

func (h *Handler) changeMembers(w http.ResponseWriter, r *http.Request, op string, k modal.Kind, pick func(*backend.Session) func(context.Context, string, ...models.ID) error) {
	if !h.parseForm(w, r, departmentsPath) {
		return
	}
	name := strings.TrimSpace(r.FormValue("d"))
	var ids []models.ID
	for _, v := range r.Form["user_id"] {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, models.ID(v))
		}
	}

	fail := func(msg string) {
		if k == modal.None {
			h.renderDepartments(w, r, name, modal.State{}, departmentForm{}, msg)
			return
		}
		h.renderDepartments(w, r, name, modal.Failed(k, msg), departmentForm{}, "")
	}
	if name == "" {
		h.renderDepartments(w, r, "", modal.State{}, departmentForm{}, "Choose a department.")
		return
	}
	if len(ids) == 0 {
		fail("Choose at least one user.")
		return
	}

	call := pick(h.session(r))
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryAdmin,
		Target:   "department:" + name,
	}, func(ctx context.Context) error {
		return call(ctx, name, ids...)
	})
	h.finish(w, r, op, err, departmentURL(name), "User or department does not exist", fail)
}
