// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the workspace pages. Branch and request routes are mounted
// under /{id} by the caller.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Get("/{id}", h.ServeDetail)
	r.Post("/{id}/archive", h.HandleArchive)
	r.Post("/{id}/update", h.HandleUpdate)
	r.Post("/{id}/delete", h.HandleDelete)

	r.Post("/{id}/accesses/user", h.HandleGrantUser)
	r.Post("/{id}/accesses/user/remove", h.HandleRevokeUser)
	r.Post("/{id}/accesses/department", h.HandleGrantDepartment)
	r.Post("/{id}/accesses/department/remove", h.HandleRevokeDepartment)
	r.Post("/{id}/accesses/public", h.HandleGrantPublic)
	r.Post("/{id}/accesses/public/remove", h.HandleRevokePublic)

	return r
}
