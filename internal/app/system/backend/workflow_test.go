package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/sudhub/internal/testutil"
)

func signIn(t *testing.T, fb *testutil.FakeBackend) (*backend.Session, *backend.MemoryCredential) {
	t.Helper()
	fb.AddUser("alice", "alice@example.com", "secret", models.RoleClient)
	cred := backend.NewMemoryCredential("")
	s := fb.Client().Session(cred)
	if err := s.Login(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if cred.Token() == "" {
		t.Fatal("Login did not set a credential")
	}
	return s, cred
}

func TestLogin_WrongPassword(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.AddUser("alice", "alice@example.com", "secret", models.RoleClient)
	s := fb.Client().Session(backend.NewMemoryCredential(""))
	err := s.Login(context.Background(), "alice@example.com", "nope")
	if !backend.IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestWorkspaceBranchRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	s, _ := signIn(t, fb)

	doc := filexfer.EncodeDataURL("text/plain", []byte("first draft"))
	wsID, err := s.CreateWorkspace(ctx, backend.NewWorkspace{
		Title:        "Contract A",
		Description:  "supplier terms",
		DocumentName: "v1.txt",
		DocumentData: doc,
	})
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}

	owned, err := s.OwnedWorkspaces(ctx, false)
	if err != nil {
		t.Fatalf("OwnedWorkspaces: %v", err)
	}
	if len(owned) != 1 || owned[0].Title != "Contract A" || owned[0].BranchesNum != 1 {
		t.Fatalf("owned = %+v", owned)
	}

	ws, err := s.Workspace(ctx, wsID)
	if err != nil {
		t.Fatalf("Workspace: %v", err)
	}
	root, err := s.Branch(ctx, wsID, ws.MainBranch)
	if err != nil {
		t.Fatalf("Branch(root): %v", err)
	}
	if !root.IsRoot() || root.Document != "v1.txt" {
		t.Fatalf("root = %+v", root)
	}

	editsID, err := s.CreateBranch(ctx, wsID, root, "edits")
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	edits, err := s.Branch(ctx, wsID, editsID)
	if err != nil {
		t.Fatalf("Branch(edits): %v", err)
	}
	if edits.ParentName != "master" || edits.DocumentID != root.DocumentID {
		t.Errorf("edits = %+v", edits)
	}

	reqID, err := s.CreateRequest(ctx, wsID, backend.NewRequest{
		Title:          "merge edits",
		SourceBranchID: editsID,
		TargetBranchID: root.ID,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	req, err := s.Request(ctx, wsID, reqID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Status != models.RequestOpen {
		t.Errorf("request status = %v, want Open", req.Status)
	}

	if err := s.DeleteBranch(ctx, wsID, edits); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	err = s.DeleteBranch(ctx, wsID, edits)
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("second DeleteBranch err = %v, want ErrNotFound", err)
	}

	ws, err = s.Workspace(ctx, wsID)
	if err != nil {
		t.Fatalf("Workspace after delete: %v", err)
	}
	if len(ws.VisibleBranches()) != 1 {
		t.Errorf("visible branches = %+v, want only root", ws.VisibleBranches())
	}
}

func TestMergeRequest_HidesSourceBranch(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	s, _ := signIn(t, fb)

	wsID, err := s.CreateWorkspace(ctx, backend.NewWorkspace{
		Title:        "Policy",
		DocumentName: "p.txt",
		DocumentData: filexfer.EncodeDataURL("text/plain", []byte("p")),
	})
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	ws, _ := s.Workspace(ctx, wsID)
	root, _ := s.Branch(ctx, wsID, ws.MainBranch)
	bid, err := s.CreateBranch(ctx, wsID, root, "draft")
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	rid, err := s.CreateRequest(ctx, wsID, backend.NewRequest{Title: "t", SourceBranchID: bid, TargetBranchID: root.ID})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := s.MergeRequest(ctx, wsID, rid); err != nil {
		t.Fatalf("MergeRequest: %v", err)
	}
	ws, _ = s.Workspace(ctx, wsID)
	for _, b := range ws.VisibleBranches() {
		if b.ID == bid {
			t.Errorf("merged branch %s still visible", bid)
		}
	}
	if err := s.CloseRequest(ctx, wsID, rid); err == nil {
		t.Error("closing an accepted request should fail")
	}
}

func TestRenameDocument_Twice(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	s, _ := signIn(t, fb)

	wsID, err := s.CreateWorkspace(ctx, backend.NewWorkspace{
		Title:        "Notes",
		DocumentName: "a.txt",
		DocumentData: filexfer.EncodeDataURL("text/plain", []byte("x")),
	})
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	ws, _ := s.Workspace(ctx, wsID)
	root, _ := s.Branch(ctx, wsID, ws.MainBranch)

	for i := 0; i < 2; i++ {
		if err := s.RenameDocument(ctx, root.DocumentID, "b.txt"); err != nil {
			t.Fatalf("RenameDocument #%d: %v", i+1, err)
		}
	}
	_, name, ok := fb.FileData(root.DocumentID)
	if !ok || name != "b.txt" {
		t.Errorf("name = %q, want b.txt", name)
	}
}

func TestUploadAndFetchFile(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	s, _ := signIn(t, fb)

	wsID, _ := s.CreateWorkspace(ctx, backend.NewWorkspace{
		Title:        "Images",
		DocumentName: "a.txt",
		DocumentData: filexfer.EncodeDataURL("text/plain", []byte("x")),
	})
	ws, _ := s.Workspace(ctx, wsID)
	root, _ := s.Branch(ctx, wsID, ws.MainBranch)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	if err := s.UploadDocument(ctx, root.DocumentID, "logo.png", filexfer.EncodeDataURL("image/png", png)); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	f, err := s.FetchFile(ctx, root.DocumentID)
	if err != nil {
		t.Fatalf("FetchFile: %v", err)
	}
	if f.ContentType != "image/png" || string(f.Data) != string(png) {
		t.Errorf("file = %q %q", f.ContentType, f.Data)
	}
	if got := filexfer.Filename(f.ContentDisposition, "x"); got != "logo.png" {
		t.Errorf("filename = %q", got)
	}
}

func TestAccessGrants(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	s, _ := signIn(t, fb)
	bobTok := fb.AddUser("bob", "bob@example.com", "pw", models.RoleClient)
	bob := fb.Client().Session(backend.NewMemoryCredential(bobTok))

	wsID, _ := s.CreateWorkspace(ctx, backend.NewWorkspace{
		Title:        "Shared",
		DocumentName: "a.txt",
		DocumentData: filexfer.EncodeDataURL("text/plain", []byte("x")),
	})

	if err := s.GrantUser(ctx, wsID, "nobody@example.com", true); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("GrantUser unknown err = %v, want ErrNotFound", err)
	}
	if err := s.GrantUser(ctx, wsID, "bob@example.com", true); err != nil {
		t.Fatalf("GrantUser: %v", err)
	}
	if err := s.GrantURL(ctx, wsID); err != nil {
		t.Fatalf("GrantURL: %v", err)
	}

	grants, err := s.Accesses(ctx, wsID)
	if err != nil {
		t.Fatalf("Accesses: %v", err)
	}
	if len(grants) != 2 || !grants[0].ReadOnly() || !models.HasPublicLink(grants) {
		t.Errorf("grants = %+v", grants)
	}

	shared, err := bob.AccessWorkspaces(ctx)
	if err != nil {
		t.Fatalf("AccessWorkspaces: %v", err)
	}
	if len(shared) != 1 || shared[0].AccessType != models.AccessViaUser {
		t.Errorf("shared = %+v", shared)
	}

	if err := s.RevokeURL(ctx, wsID); err != nil {
		t.Fatalf("RevokeURL: %v", err)
	}
	open, _ := bob.OpenWorkspaces(ctx)
	if len(open) != 0 {
		t.Errorf("open = %+v, want none", open)
	}
}

func TestDepartments(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	adminTok := fb.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	fb.AddUser("carol", "carol@example.com", "pw", models.RoleClient)
	s := fb.Client().Session(backend.NewMemoryCredential(adminTok))

	if err := s.CreateDepartment(ctx, "Legal"); err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}
	if err := s.CreateDepartment(ctx, "Legal"); backend.StatusCode(err) != 400 {
		t.Errorf("duplicate CreateDepartment err = %v, want 400", err)
	}
	carol := fb.UserID("carol@example.com")
	if err := s.AddMembers(ctx, "Legal", carol); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	members, err := s.DepartmentMembers(ctx, "Legal")
	if err != nil || len(members) != 1 || members[0].Username != "carol" {
		t.Fatalf("members = %+v, err = %v", members, err)
	}
	if err := s.RemoveMembers(ctx, "Legal", carol); err != nil {
		t.Fatalf("RemoveMembers: %v", err)
	}
	if err := s.DeleteDepartment(ctx, "Legal"); err != nil {
		t.Fatalf("DeleteDepartment: %v", err)
	}
	if err := s.DeleteDepartment(ctx, "Legal"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("second DeleteDepartment err = %v, want ErrNotFound", err)
	}
}

func TestRotatingTokensStayValid(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend(t)
	fb.RotateTokens = true
	tok := fb.AddUser("alice", "alice@example.com", "pw", models.RoleClient)
	cred := backend.NewMemoryCredential(tok)
	s := fb.Client().Session(cred)

	for i := 0; i < 3; i++ {
		if _, err := s.Whoami(ctx); err != nil {
			t.Fatalf("Whoami #%d: %v", i+1, err)
		}
	}
	if cred.Token() == tok {
		t.Error("credential was never refreshed")
	}
}

// The backend sends workspace and branch statuses as quoted numbers and
// names the owner under "owner" in the admin listing.
func TestWorkflow_QuotedStatusPayloads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_workspaces", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"workspaces":[{"id":"w1","title":"Contract","username":"alice","status":"1","branches_num":2,"main_branch":"10"}]}`)
	})
	mux.HandleFunc("/all_workspaces", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"workspaces":[{"id":"w1","title":"Contract","owner":"alice","status":"2","branches_num":2,"main_branch":"10"}]}`)
	})
	mux.HandleFunc("/get_workspace/w1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"w1","title":"Contract","username":"alice","status":"1","branches_num":2,"main_branch":"10",
			"branches":[{"id":"10","name":"main","status":"1"},{"id":"11","name":"draft","status":"1"},{"id":"12","name":"old","status":"2"}],
			"requests":[{"id":"5","title":"Merge draft","status":1,"source_branch_id":"11","target_branch_id":"10"}]}`)
	})
	mux.HandleFunc("/workspace/w1/view/11", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"11","name":"draft","parent":"10","parentName":"main","authorName":"alice","document":"v1.txt","document_id":"3","status":"1","requests":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	s := backend.NewForTesting(srv.URL, srv.Client()).Session(backend.NewMemoryCredential("tok"))

	owned, err := s.OwnedWorkspaces(ctx, false)
	if err != nil {
		t.Fatalf("OwnedWorkspaces: %v", err)
	}
	if len(owned) != 1 || owned[0].Status != models.WorkspaceActive || !owned[0].OwnedBy("alice") {
		t.Errorf("owned = %+v", owned)
	}

	all, err := s.AllWorkspaces(ctx)
	if err != nil {
		t.Fatalf("AllWorkspaces: %v", err)
	}
	if len(all) != 1 || all[0].Status != models.WorkspaceArchived || all[0].OwnerName() != "alice" {
		t.Errorf("all = %+v", all)
	}

	ws, err := s.Workspace(ctx, "w1")
	if err != nil {
		t.Fatalf("Workspace: %v", err)
	}
	if ws.Status != models.WorkspaceActive {
		t.Errorf("Status = %v", ws.Status)
	}
	if v := ws.VisibleBranches(); len(v) != 2 || v[0].ID != "10" || v[1].ID != "11" {
		t.Errorf("visible branches = %+v", v)
	}
	if len(ws.Requests) != 1 || !ws.Requests[0].Status.Actionable() {
		t.Errorf("requests = %+v", ws.Requests)
	}

	br, err := s.Branch(ctx, "w1", "11")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	if br.Status != models.BranchActive || br.ParentName != "main" || br.DocumentID != "3" {
		t.Errorf("branch = %+v", br)
	}
}

func TestWorkflow_FakeSendsQuotedStatuses(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	_, cred := signIn(t, fb)
	id, _ := fb.AddWorkspace("alice", "Contract", "v1.txt", "hello")

	req, err := http.NewRequest(http.MethodGet, fb.Server.URL+"/get_workspace/"+id.String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(&http.Cookie{Name: "session", Value: cred.Token()})
	resp, err := fb.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var raw struct {
		Status   json.RawMessage `json:"status"`
		Branches []struct {
			Status json.RawMessage `json:"status"`
		} `json:"branches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw.Status) != `"1"` {
		t.Errorf("workspace status = %s, want \"1\"", raw.Status)
	}
	if len(raw.Branches) == 0 || string(raw.Branches[0].Status) != `"1"` {
		t.Errorf("branches = %+v", raw.Branches)
	}
}
