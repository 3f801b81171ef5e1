// Package identity resolves the display identity of the signed-in user by
// asking the backend who they are. A failed lookup degrades to a
// placeholder name; guarding routes is left to auth.
package identity

import (
	"context"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"go.uber.org/zap"
)

// Anonymous is shown when the backend cannot resolve the user.
const Anonymous = "Anonymous"

type ctxKey struct{}

type resolved struct {
	name string
	role string
}

// Resolver runs whoami once per protected view.
type Resolver struct {
	client *backend.Client
	log    *zap.Logger
}

// NewResolver returns a Resolver using client.
func NewResolver(client *backend.Client, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, log: logger}
}

// Middleware resolves the identity and stores it on the request context.
// It never blocks the request.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(res.resolve(r)))
	})
}

func (res *Resolver) resolve(r *http.Request) context.Context {
	out := resolved{name: Anonymous}
	if u, ok := auth.CurrentUser(r); ok {
		out.role = u.Role
	}

	cred := auth.CredentialFrom(r)
	if cred == nil {
		return context.WithValue(r.Context(), ctxKey{}, out)
	}

	id, err := res.client.Session(cred).Whoami(r.Context())
	if err != nil {
		res.log.Warn("whoami failed; showing placeholder name",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return context.WithValue(r.Context(), ctxKey{}, out)
	}
	out.name = id.Username
	if id.Role != "" {
		out.role = models.RoleName(id.Role)
	}
	return context.WithValue(r.Context(), ctxKey{}, out)
}

// Name returns the resolved display name, or Anonymous.
func Name(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKey{}).(resolved); ok {
		return v.name
	}
	return Anonymous
}

// Role returns the resolved role name. It falls back to the role stored at
// sign-in when whoami did not report one.
func Role(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKey{}).(resolved); ok && v.role != "" {
		return v.role
	}
	if u, ok := auth.CurrentUser(r); ok {
		return u.Role
	}
	return ""
}

// WithName stores a resolved identity directly. Used by tests and by
// handlers that learned the identity some other way.
func WithName(r *http.Request, name, role string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, resolved{name: name, role: role}))
}
