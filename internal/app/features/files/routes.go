// internal/app/features/files/routes.go
package files

import (
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{id}/view", h.ServeView)
	return r
}
