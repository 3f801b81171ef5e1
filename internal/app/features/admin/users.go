// internal/app/features/admin/users.go
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

const usersPath = "/admin/users"

// isSelf reports whether u is the signed-in account.
func isSelf(r *http.Request, u models.User) bool {
	su, ok := auth.CurrentUser(r)
	return ok && su.LoginID != "" && strings.EqualFold(su.LoginID, u.Email)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/users                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeUsers lists every account. The delete action is not offered on the
// signed-in account.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	st := modal.State{Active: modal.FromRequest(r)}
	h.renderUsers(w, r, models.ID(query.Get(r, "uid")), st)
}

func (h *Handler) renderUsers(w http.ResponseWriter, r *http.Request, confirm models.ID, st modal.State) {
	sess := h.session(r)
	users, ok := viewstate.FetchCollection(r.Context(), "There are no users.", func(ctx context.Context) ([]models.User, error) {
		return sess.Users(ctx)
	})
	if !ok {
		return
	}
	if h.ErrLog.SessionExpired(w, r, viewstate.Rejected(users.Cause())) {
		return
	}

	data := usersData{
		BaseVM:    viewdata.NewBaseVM(r, "Users", "/admin"),
		Users:     viewstate.Collection[userRow]{Err: users.Err, EmptyMessage: users.EmptyMessage},
		Modal:     st,
		FormToken: mutate.NewToken(),
	}
	for _, u := range users.Items {
		row := userRow{User: u, RoleName: models.RoleName(u.Role), IsSelf: isSelf(r, u)}
		data.Users.Items = append(data.Users.Items, row)
		if u.ID == confirm && !row.IsSelf {
			c := row
			data.Confirm = &c
		}
	}
	if st.Is(modal.DeleteUser) && data.Confirm == nil {
		data.Modal = modal.State{}
		data.Notice = st.Error
	}

	templates.Render(w, r, "admin_users", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/users/{uid}/delete                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDeleteUser removes an account. Deleting the signed-in account is
// refused before the backend is called.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, usersPath) {
		return
	}
	uid := models.ID(chi.URLParam(r, "uid"))
	sess := h.session(r)

	users, err := sess.Users(r.Context())
	if err != nil {
		if h.ErrLog.SessionExpired(w, r, err) {
			return
		}
		h.renderUsers(w, r, uid, modal.Failed(modal.DeleteUser, viewstate.ErrorMessage(err)))
		return
	}
	for _, u := range users {
		if u.ID == uid && isSelf(r, u) {
			h.renderUsers(w, r, "", modal.Failed(modal.DeleteUser, "You cannot delete your own account."))
			return
		}
	}

	const op = "user_delete"
	err = h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     op,
		Category: audit.CategoryAdmin,
		Target:   "user:" + uid.String(),
	}, func(ctx context.Context) error {
		return sess.DeleteUser(ctx, uid)
	})
	h.finish(w, r, op, err, usersPath, "User does not exist", func(msg string) {
		h.renderUsers(w, r, uid, modal.Failed(modal.DeleteUser, msg))
	})
}
