// Package mutate dispatches one user-initiated write to the backend.
//
// Every form that changes backend state carries a form_token. The token is
// claimed before the call, so a double click or a browser resubmit is
// dropped instead of sent twice, and it travels to the backend as the
// Idempotency-Key header.
package mutate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/submissions"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/timeouts"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenField is the hidden form field holding the submission token.
const TokenField = "form_token"

// ErrDuplicate reports that the form was already dispatched. Handlers treat
// it like success and redirect to the page the first submit led to.
var ErrDuplicate = errors.New("duplicate submission dropped")

// NewToken returns a fresh form token for a rendered form.
func NewToken() string { return uuid.NewString() }

// Op names one write for the audit trail.
type Op struct {
	Name     string // e.g. "branch_create"
	Category string // audit category
	Target   string // e.g. "workspace:3"
}

// Dispatcher runs writes. Submissions and Audit may be nil.
type Dispatcher struct {
	Submissions *submissions.Store
	Audit       *auditlog.Logger
	Log         *zap.Logger
}

// New creates a Dispatcher.
func New(subs *submissions.Store, audit *auditlog.Logger, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Submissions: subs, Audit: audit, Log: logger}
}

func actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.LoginID
	}
	return ""
}

// Do claims the request's form token, then runs call exactly once. A token
// that was already claimed returns ErrDuplicate without calling. When call
// fails the claim is released so the corrected form can be sent again.
func (d *Dispatcher) Do(ctx context.Context, r *http.Request, op Op, call func(context.Context) error) error {
	who := actor(r)
	token := strings.TrimSpace(r.PostFormValue(TokenField))

	claimed := false
	if token != "" && d.Submissions != nil {
		cctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		err := d.Submissions.Claim(cctx, token, who, op.Name)
		cancel()
		switch {
		case errors.Is(err, submissions.ErrDuplicate):
			d.Log.Info("duplicate submission dropped",
				zap.String("op", op.Name),
				zap.String("actor", who),
				zap.String("target", op.Target))
			d.Audit.DuplicateDropped(ctx, r, op.Category, op.Name, who, op.Target)
			return ErrDuplicate
		case err != nil:
			// The guard is best effort; the backend still sees the key.
			d.Log.Warn("submission claim failed", zap.String("op", op.Name), zap.Error(err))
		default:
			claimed = true
		}
	}

	if token != "" {
		ctx = backend.WithIdempotencyKey(ctx, token)
	}
	err := call(ctx)
	d.Audit.Mutation(ctx, r, op.Category, op.Name, who, op.Target, err)

	if err != nil && claimed {
		rctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		if rerr := d.Submissions.Release(rctx, token); rerr != nil {
			d.Log.Warn("submission release failed", zap.String("op", op.Name), zap.Error(rerr))
		}
		cancel()
	}
	return err
}

// Failure is the message shown for a failed write. notFound replaces the
// generic text for a 404, e.g. "User does not exist".
func Failure(err error, notFound string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, backend.ErrRootBranch):
		return "The root branch cannot be deleted."
	case errors.Is(err, backend.ErrNotFound) && notFound != "":
		return notFound
	}
	return viewstate.ErrorMessage(err)
}
