// internal/app/features/requests/routes.go
package requests

import (
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the request pages below /workspaces/{id}/requests.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{rid}", h.ServeRequest)
	r.Post("/{rid}/close", h.HandleClose)
	r.Post("/{rid}/merge", h.HandleMerge)
	return r
}
