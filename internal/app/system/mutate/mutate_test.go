package mutate_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/store/submissions"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/testutil"
	"go.uber.org/zap"
)

func formRequest(token string) *http.Request {
	r := testutil.NewFormRequest("/workspaces/1/branches", "form_token="+token, testutil.ClientUser("alice", "tok"))
	_ = r.ParseForm()
	return r
}

func newDispatcher(t *testing.T) (*mutate.Dispatcher, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	subs := submissions.New(db)
	if err := subs.EnsureIndexes(ctx, submissions.DefaultTTL); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	auditStore := audit.New(db)
	logger := auditlog.New(auditStore, zap.NewNop(), auditlog.Config{
		Auth: auditlog.DB, Workspace: auditlog.DB, Admin: auditlog.DB,
	})
	return mutate.New(subs, logger, zap.NewNop()), auditStore
}

func TestDo_DropsDuplicateSubmit(t *testing.T) {
	d, auditStore := newDispatcher(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	op := mutate.Op{Name: "branch_create", Category: audit.CategoryWorkspace, Target: "workspace:1"}
	calls := 0
	call := func(context.Context) error { calls++; return nil }

	if err := d.Do(ctx, formRequest("tok-1"), op, call); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	err := d.Do(ctx, formRequest("tok-1"), op, call)
	if !errors.Is(err, mutate.ErrDuplicate) {
		t.Fatalf("second submit err = %v, want ErrDuplicate", err)
	}
	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}

	events, err := auditStore.Query(ctx, audit.QueryFilter{EventType: audit.EventDuplicateDropped})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 || events[0].Actor != "alice@test.com" {
		t.Errorf("duplicate audit events = %+v", events)
	}
}

func TestDo_ReleasesTokenOnFailure(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	op := mutate.Op{Name: "workspace_delete", Category: audit.CategoryWorkspace}
	boom := &backend.StatusError{Code: 500}

	if err := d.Do(ctx, formRequest("tok-2"), op, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the backend error", err)
	}
	calls := 0
	if err := d.Do(ctx, formRequest("tok-2"), op, func(context.Context) error { calls++; return nil }); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if calls != 1 {
		t.Error("retry with the same token should reach the backend")
	}
}

func TestDo_SendsIdempotencyKey(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	token := fb.AddUser("alice", "alice@test.com", "pw", "2")
	sess := fb.Client().Session(backend.NewMemoryCredential(token))

	d := mutate.New(nil, nil, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := d.Do(ctx, formRequest("tok-3"), mutate.Op{Name: "workspace_create"}, func(ctx context.Context) error {
		_, err := sess.CreateWorkspace(ctx, backend.NewWorkspace{
			Title:        "Contract A",
			DocumentName: "v1.txt",
			DocumentData: "data:text/plain;base64,aGk=",
		})
		return err
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := fb.LastIdempotencyKey(); got != "tok-3" {
		t.Errorf("Idempotency-Key = %q, want tok-3", got)
	}
}

func TestDo_NoTokenStillCalls(t *testing.T) {
	d := mutate.New(nil, nil, nil)
	called := false
	err := d.Do(context.Background(), formRequest(""), mutate.Op{Name: "x"}, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("err=%v called=%v", err, called)
	}
}

func TestFailure(t *testing.T) {
	if got := mutate.Failure(&backend.StatusError{Code: 404}, "User does not exist"); got != "User does not exist" {
		t.Errorf("404 = %q", got)
	}
	if got := mutate.Failure(backend.ErrRootBranch, ""); !strings.Contains(got, "root branch") {
		t.Errorf("root = %q", got)
	}
	if got := mutate.Failure(&backend.TransportError{Op: "x", Err: errors.New("dial")}, "nf"); !strings.Contains(got, "could not be reached") {
		t.Errorf("transport = %q", got)
	}
	if mutate.Failure(nil, "nf") != "" {
		t.Error("nil error should have no message")
	}
}
