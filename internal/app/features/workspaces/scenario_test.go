package workspaces_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/features/branches"
	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/sudhub/internal/testutil"
	"go.uber.org/zap"
)

// TestWorkspaceLifecycle drives create workspace, branch, request and
// branch delete through the handlers against the fake backend.
func TestWorkspaceLifecycle(t *testing.T) {
	f := newFixture(t)
	logger := zap.NewNop()
	audit := auditlog.NewNopLogger()
	bh := branches.NewHandler(f.fb.Client(), mutate.New(nil, audit, logger), uierrors.NewErrorLogger(logger), audit, 1<<20, logger)

	// Create "Contract A" with v1.txt.
	rec := httptest.NewRecorder()
	req := multipartCreate(t, "Contract A", "v1.txt", "hello", f.alice)
	testutil.RenderSafely(func() { f.h.HandleCreate(rec, req) })
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create: expected 303, got %d", rec.Code)
	}

	owned, err := f.sess(f.alice).OwnedWorkspaces(ctx(t), false)
	if err != nil || len(owned) != 1 {
		t.Fatalf("owned = %+v, %v", owned, err)
	}
	ws := owned[0]
	if ws.Title != "Contract A" || ws.BranchesNum != 1 {
		t.Fatalf("listed workspace = %+v", ws)
	}
	rootID := ws.MainBranch

	branchPost := func(handler http.HandlerFunc, bid models.ID, action string, form url.Values) *httptest.ResponseRecorder {
		path := "/workspaces/" + ws.ID.String() + "/branches/" + bid.String() + "/" + action
		r := testutil.NewFormRequest(path, form.Encode(), f.alice)
		r = testutil.WithChiURLParam(r, "id", ws.ID.String())
		r = testutil.WithChiURLParam(r, "bid", bid.String())
		rec := httptest.NewRecorder()
		testutil.RenderSafely(func() { handler(rec, r) })
		return rec
	}

	// Branch "edits" from root.
	if rec := branchPost(bh.HandleCreateBranch, rootID, "branches", url.Values{"name": {"edits"}}); rec.Code != http.StatusSeeOther {
		t.Fatalf("create branch: expected 303, got %d", rec.Code)
	}
	detail, _ := f.sess(f.alice).Workspace(ctx(t), ws.ID)
	if len(detail.VisibleBranches()) != 2 {
		t.Fatalf("branches = %+v", detail.Branches)
	}
	var editsID models.ID
	for _, b := range detail.Branches {
		if b.Name == "edits" {
			editsID = b.ID
		}
	}
	edits, _ := f.sess(f.alice).Branch(ctx(t), ws.ID, editsID)
	if edits.Parent != rootID {
		t.Errorf("edits.parent = %s, want %s", edits.Parent, rootID)
	}

	// Request edits -> root.
	if rec := branchPost(bh.HandleCreateRequest, editsID, "requests",
		url.Values{"title": {"Merge edits"}, "target": {rootID.String()}}); rec.Code != http.StatusSeeOther {
		t.Fatalf("create request: expected 303, got %d", rec.Code)
	}
	detail, _ = f.sess(f.alice).Workspace(ctx(t), ws.ID)
	if len(detail.Requests) != 1 || detail.Requests[0].Status != models.RequestOpen {
		t.Fatalf("requests = %+v", detail.Requests)
	}

	// Delete edits, then try again.
	if rec := branchPost(bh.HandleDelete, editsID, "delete", url.Values{}); rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", rec.Code)
	}
	detail, _ = f.sess(f.alice).Workspace(ctx(t), ws.ID)
	if len(detail.VisibleBranches()) != 1 {
		t.Errorf("branches after delete = %+v", detail.Branches)
	}
	if rec := branchPost(bh.HandleDelete, editsID, "delete", url.Values{}); rec.Code == http.StatusSeeOther {
		t.Error("second delete reported success")
	}
}
