package requests_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/features/requests"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/sudhub/internal/testutil"
	"go.uber.org/zap"
)

type fixture struct {
	h         *requests.Handler
	fb        *testutil.FakeBackend
	alice     testutil.TestUser
	spaceID   models.ID
	rootID    models.ID
	childID   models.ID
	requestID models.ID
}

// newFixture seeds a workspace with one child branch and an open request
// from the child into the root.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	tok := fb.AddUser("alice", "alice@test.com", "secret", models.RoleClient)
	spaceID, rootID := fb.AddWorkspace("alice", "Contract A", "v1.txt", "hello")

	logger := zap.NewNop()
	audit := auditlog.NewNopLogger()
	h := requests.NewHandler(fb.Client(), mutate.New(nil, audit, logger), uierrors.NewErrorLogger(logger), audit, logger)
	f := &fixture{h: h, fb: fb, alice: testutil.ClientUser("alice", tok), spaceID: spaceID, rootID: rootID}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	root, err := f.sess().Branch(ctx, spaceID, rootID)
	if err != nil {
		t.Fatal(err)
	}
	if f.childID, err = f.sess().CreateBranch(ctx, spaceID, root, "edits"); err != nil {
		t.Fatal(err)
	}
	f.requestID, err = f.sess().CreateRequest(ctx, spaceID, backend.NewRequest{
		Title:          "Take edits",
		SourceBranchID: f.childID,
		TargetBranchID: rootID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) sess() *backend.Session {
	return f.fb.Client().Session(backend.NewMemoryCredential(f.alice.Token))
}

func (f *fixture) requestPath(rid models.ID) string {
	return "/workspaces/" + f.spaceID.String() + "/requests/" + rid.String()
}

func (f *fixture) withIDs(req *http.Request, rid models.ID) *http.Request {
	req = testutil.WithChiURLParam(req, "id", f.spaceID.String())
	return testutil.WithChiURLParam(req, "rid", rid.String())
}

func (f *fixture) post(t *testing.T, handler http.HandlerFunc, rid models.ID, action string) *httptest.ResponseRecorder {
	t.Helper()
	req := f.withIDs(testutil.NewFormRequest(f.requestPath(rid)+"/"+action, "", f.alice), rid)
	rec := httptest.NewRecorder()
	testutil.RenderSafely(func() { handler(rec, req) })
	return rec
}

func (f *fixture) request(t *testing.T) models.Request {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	rq, err := f.sess().Request(ctx, f.spaceID, f.requestID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return rq
}

func (f *fixture) branch(t *testing.T, bid models.ID) models.Branch {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b, err := f.sess().Branch(ctx, f.spaceID, bid)
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	return b
}

func TestHandleMerge(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, f.h.HandleMerge, f.requestID, "merge")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != f.requestPath(f.requestID) {
		t.Errorf("Location = %q", loc)
	}
	if got := f.request(t).Status; got != models.RequestAccepted {
		t.Errorf("request status = %s, want Accepted", got)
	}
	src, dst := f.branch(t, f.childID), f.branch(t, f.rootID)
	if src.Status != models.BranchMerged {
		t.Errorf("source status = %v, want merged", src.Status)
	}
	if dst.DocumentID != src.DocumentID {
		t.Errorf("target document = %s, want %s", dst.DocumentID, src.DocumentID)
	}
}

func TestHandleClose(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, f.h.HandleClose, f.requestID, "close")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := f.request(t).Status; got != models.RequestClosed {
		t.Errorf("request status = %s, want Closed", got)
	}
	if got := f.branch(t, f.childID).Status; got != models.BranchActive {
		t.Errorf("source status = %v, want active", got)
	}
}

func TestHandleClose_NotActionableSkipsBackend(t *testing.T) {
	f := newFixture(t)
	closePath := "POST /workspace/" + f.spaceID.String() + "/request/" + f.requestID.String() + "/close"
	mergePath := "POST /workspace/" + f.spaceID.String() + "/request/" + f.requestID.String() + "/force_merge"

	if rec := f.post(t, f.h.HandleClose, f.requestID, "close"); rec.Code != http.StatusSeeOther {
		t.Fatalf("first close: expected 303, got %d", rec.Code)
	}
	if rec := f.post(t, f.h.HandleClose, f.requestID, "close"); rec.Code == http.StatusSeeOther {
		t.Error("closing a closed request should re-render")
	}
	if rec := f.post(t, f.h.HandleMerge, f.requestID, "merge"); rec.Code == http.StatusSeeOther {
		t.Error("merging a closed request should re-render")
	}
	if n := f.fb.CallCount(closePath); n != 1 {
		t.Errorf("close called %d times, want 1", n)
	}
	if n := f.fb.CallCount(mergePath); n != 0 {
		t.Errorf("merge called %d times, want 0", n)
	}
}

func TestHandleMerge_MissingRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, f.h.HandleMerge, "missing", "merge")
	if rec.Code == http.StatusSeeOther {
		t.Fatal("merging a missing request should re-render")
	}
	if n := f.fb.CallCount("POST /workspace/" + f.spaceID.String() + "/request/missing/force_merge"); n != 0 {
		t.Errorf("merge called %d times", n)
	}
}

func TestServeRequest_Missing(t *testing.T) {
	f := newFixture(t)

	req := f.withIDs(testutil.NewAuthenticatedRequest(http.MethodGet, f.requestPath("missing"), f.alice), "missing")
	rec := httptest.NewRecorder()
	testutil.RenderSafely(func() { f.h.ServeRequest(rec, req) })
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
