// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin pages, typically at "/admin". Every page needs
// the admin role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/", h.ServeOverview)
		pr.Post("/workspaces/{id}/update", h.HandleUpdateWorkspace)
		pr.Post("/workspaces/{id}/delete", h.HandleDeleteWorkspace)

		pr.Get("/departments", h.ServeDepartments)
		pr.Post("/departments", h.HandleCreate)
		pr.Post("/departments/delete", h.HandleDelete)
		pr.Post("/departments/members", h.HandleAddMembers)
		pr.Post("/departments/members/remove", h.HandleRemoveMembers)

		pr.Get("/users", h.ServeUsers)
		pr.Post("/users/{uid}/delete", h.HandleDeleteUser)
	})
	return r
}
