// internal/app/features/branches/routes.go
package branches

import (
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the branch pages. The router is mounted below a
// /workspaces/{id}/branches prefix so {id} names the workspace.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{bid}", h.ServeBranch)
	r.Post("/{bid}/branches", h.HandleCreateBranch)
	r.Post("/{bid}/requests", h.HandleCreateRequest)
	r.Post("/{bid}/rename", h.HandleRename)
	r.Post("/{bid}/upload", h.HandleUpload)
	r.Post("/{bid}/delete", h.HandleDelete)
	r.Post("/{bid}/copy", h.HandleCopy)

	return r
}
