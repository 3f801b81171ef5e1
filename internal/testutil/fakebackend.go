package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FakeBackend is an in-memory implementation of the sud REST API served by
// an httptest.Server. It keeps just enough state for handler and client
// tests to observe the effects of their calls.
type FakeBackend struct {
	Server *httptest.Server

	// RotateTokens issues a fresh credential cookie on every authenticated
	// response, exercising credential refresh.
	RotateTokens bool

	mu          sync.Mutex
	seq         int
	users       map[string]*fakeUser // by email
	tokens      map[string]string    // token -> email
	departments map[string][]models.ID
	deptOrder   []string
	spaces      map[models.ID]*fakeSpace
	spaceOrder  []models.ID
	files       map[models.ID]*fakeFile
	calls       []string
	failures    map[string]int
	lastKey     string
}

type fakeUser struct {
	models.User
	password string
}

type fakeSpace struct {
	models.Workspace
	branches []*fakeBranch
	requests []*models.Request
	accesses []models.AccessGrant
}

type fakeBranch struct {
	models.Branch
}

type fakeFile struct {
	name        string
	contentType string
	data        []byte
}

// NewFakeBackend starts a FakeBackend and closes it when t ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		users:       map[string]*fakeUser{},
		tokens:      map[string]string{},
		departments: map[string][]models.ID{},
		spaces:      map[models.ID]*fakeSpace{},
		files:       map[models.ID]*fakeFile{},
		failures:    map[string]int{},
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns a backend client pointed at the fake.
func (f *FakeBackend) Client() *backend.Client {
	return backend.NewForTesting(f.Server.URL, f.Server.Client())
}

// AddUser registers an account and returns a credential token for it.
func (f *FakeBackend) AddUser(username, email, password, role string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUser{
		User:     models.User{ID: f.nextID(), Username: username, Email: email, Role: role},
		password: password,
	}
	f.users[email] = u
	return f.issueToken(email)
}

// UserID returns the id of the account registered under email.
func (f *FakeBackend) UserID(email string) models.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[email]; ok {
		return u.ID
	}
	return ""
}

// AddWorkspace creates a workspace owned by username holding one text
// document, and returns its id and the id of its root branch.
func (f *FakeBackend) AddWorkspace(username, title, docName, content string) (models.ID, models.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.newSpace(username, title, "", &fakeFile{name: docName, contentType: "text/plain; charset=utf-8", data: []byte(content)})
	return s.ID, s.MainBranch
}

// AddFile stores a document outside any workspace and returns its id.
// An empty name is served without a Content-Disposition header.
func (f *FakeBackend) AddFile(name, contentType string, data []byte) models.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	fid := f.nextID()
	f.files[fid] = &fakeFile{name: name, contentType: contentType, data: data}
	return fid
}

// FailNext makes the next n requests whose "METHOD /path" starts with
// prefix answer with status code instead of being served.
func (f *FakeBackend) FailNext(prefix string, code, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[prefix+"|"+strconv.Itoa(code)] = n
}

// Calls returns every request served so far as "METHOD /path".
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many served requests start with prefix.
func (f *FakeBackend) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// FileData returns the stored content of a document.
func (f *FakeBackend) FileData(id models.ID) ([]byte, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), file.data...), file.name, true
}

// LastIdempotencyKey returns the most recent Idempotency-Key header seen.
func (f *FakeBackend) LastIdempotencyKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastKey
}

func (f *FakeBackend) nextID() models.ID {
	f.seq++
	return models.ID(strconv.Itoa(f.seq))
}

func (f *FakeBackend) issueToken(email string) string {
	tok := uuid.NewString()
	f.tokens[tok] = email
	return tok
}

/*─────────────────────────────────────────────────────────────────────────────*
| plumbing                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxUser struct{}

func (f *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Put("/login", f.login)
	r.Post("/registration", f.register)

	r.Group(func(pr chi.Router) {
		pr.Use(f.authenticate)

		pr.Get("/whoiam", f.whoami)
		pr.Get("/get_workspaces", f.ownedWorkspaces)
		pr.Get("/get_workspaces_access", f.accessWorkspaces)
		pr.Get("/get_workspaces_open", f.openWorkspaces)
		pr.Get("/all_workspaces", f.allWorkspaces)
		pr.Get("/get_workspace/{id}", f.getWorkspace)

		pr.Post("/workspace/add", f.createWorkspace)
		pr.Post("/workspace/{id}/archive", f.archiveWorkspace)
		pr.Put("/workspace/{id}", f.updateWorkspace)
		pr.Delete("/workspace/{id}", f.deleteWorkspace)
		pr.Post("/workspace/{id}/copy/{bid}", f.copyBranch)

		pr.Get("/workspace/{id}/view/{bid}", f.getBranch)
		pr.Post("/workspace/{id}/add_branch", f.addBranch)
		pr.Delete("/workspace/{id}/branch/{bid}", f.deleteBranch)

		pr.Post("/workspace/{id}/request", f.addRequest)
		pr.Get("/workspace/{id}/request/{rid}", f.getRequest)
		pr.Post("/workspace/{id}/request/{rid}/close", f.closeRequest)
		pr.Post("/workspace/{id}/request/{rid}/force_merge", f.mergeRequest)

		pr.Put("/rename/{fid}", f.rename)
		pr.Post("/upload_file/{fid}", f.upload)
		pr.Get("/file/{fid}/view", f.viewFile)
		pr.Get("/search", f.search)

		pr.Get("/accesses/{id}", f.listAccesses)
		pr.Put("/accesses/{id}/email/{email}", f.grantUser)
		pr.Delete("/accesses/{id}/email/{email}", f.revokeUser)
		pr.Put("/accesses/{id}/department/{name}", f.grantDepartment)
		pr.Delete("/accesses/{id}/department/{name}", f.revokeDepartment)
		pr.Put("/accesses/{id}/url", f.grantURL)
		pr.Delete("/accesses/{id}/url", f.revokeURL)

		pr.Get("/department", f.listDepartments)
		pr.Post("/department", f.createDepartment)
		pr.Delete("/department", f.deleteDepartment)
		pr.Get("/department/users", f.listMembers)
		pr.Post("/department/users", f.addMembers)
		pr.Delete("/department/users", f.removeMembers)

		pr.Get("/user", f.listUsers)
		pr.Delete("/user/{uid}", f.deleteUser)
	})
	return r
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, call)
		if k := r.Header.Get("Idempotency-Key"); k != "" {
			f.lastKey = k
		}
		for key, n := range f.failures {
			prefix, codeStr, _ := strings.Cut(key, "|")
			if n > 0 && strings.HasPrefix(call, prefix) {
				f.failures[key] = n - 1
				f.mu.Unlock()
				code, _ := strconv.Atoi(codeStr)
				http.Error(w, "forced failure", code)
				return
			}
		}
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("session")
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		email, ok := f.tokens[ck.Value]
		var u *fakeUser
		if ok {
			u = f.users[email]
		}
		if u != nil && f.RotateTokens {
			delete(f.tokens, ck.Value)
			http.SetCookie(w, &http.Cookie{Name: "session", Value: f.issueToken(email), Path: "/"})
		}
		f.mu.Unlock()
		if u == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser{}, u)))
	})
}

func currentUser(r *http.Request) *fakeUser {
	u, _ := r.Context().Value(ctxUser{}).(*fakeUser)
	return u
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func id(r *http.Request, key string) models.ID {
	return models.ID(chi.URLParam(r, key))
}

// space returns the workspace named by the {id} param, writing 404 if absent.
// Callers hold f.mu.
func (f *FakeBackend) space(w http.ResponseWriter, r *http.Request) *fakeSpace {
	s, ok := f.spaces[id(r, "id")]
	if !ok {
		http.Error(w, "workspace not found", http.StatusNotFound)
		return nil
	}
	return s
}

func (s *fakeSpace) branch(bid models.ID) *fakeBranch {
	for _, b := range s.branches {
		if b.ID == bid {
			return b
		}
	}
	return nil
}

func (s *fakeSpace) summary() models.Workspace {
	ws := s.Workspace
	ws.Branches = nil
	ws.Requests = nil
	for _, b := range s.branches {
		if b.Status < models.BranchMerged {
			ws.BranchesNum++
		}
	}
	return ws
}

func (s *fakeSpace) detail() models.Workspace {
	ws := s.summary()
	ws.Branches = []models.BranchSummary{}
	for _, b := range s.branches {
		ws.Branches = append(ws.Branches, models.BranchSummary{ID: b.ID, Name: b.Name, Status: b.Status})
	}
	ws.Requests = []models.Request{}
	for _, rq := range s.requests {
		ws.Requests = append(ws.Requests, *rq)
	}
	return ws
}

/*─────────────────────────────────────────────────────────────────────────────*
| identity                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(r, &in) {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	u, ok := f.users[in.Email]
	if !ok || u.password != in.Password {
		f.mu.Unlock()
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	tok := f.issueToken(in.Email)
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: "session", Value: tok, Path: "/"})
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var in backend.Registration
	if !readJSON(r, &in) || in.Email == "" {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[in.Email]; exists {
		http.Error(w, "user exists", http.StatusBadRequest)
		return
	}
	f.users[in.Email] = &fakeUser{
		User:     models.User{ID: f.nextID(), Username: in.Username, Email: in.Email, Role: in.Role},
		password: in.Password,
	}
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) whoami(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	writeJSON(w, map[string]string{"username": u.Username, "role": u.Role})
}

/*─────────────────────────────────────────────────────────────────────────────*
| workspaces                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) listWhere(keep func(*fakeSpace) (models.AccessType, bool)) []models.Workspace {
	out := []models.Workspace{}
	for _, sid := range f.spaceOrder {
		s := f.spaces[sid]
		if at, ok := keep(s); ok {
			ws := s.summary()
			ws.AccessType = at
			out = append(out, ws)
		}
	}
	return out
}

func (f *FakeBackend) ownedWorkspaces(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	want := models.WorkspaceActive
	if r.URL.Query().Get("archived") == "true" {
		want = models.WorkspaceArchived
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, map[string]any{"workspaces": f.listWhere(func(s *fakeSpace) (models.AccessType, bool) {
		return 0, s.Username == u.Username && s.Status == want
	})})
}

func (f *FakeBackend) accessWorkspaces(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, map[string]any{"workspaces": f.listWhere(func(s *fakeSpace) (models.AccessType, bool) {
		if s.Username == u.Username || s.Status != models.WorkspaceActive {
			return 0, false
		}
		for _, g := range s.accesses {
			switch {
			case g.Kind == models.AccessUser && g.Content == u.Email:
				return models.AccessViaUser, true
			case g.Kind == models.AccessDepartment && f.inDepartment(g.Content, u.ID):
				return models.AccessViaDepartment, true
			}
		}
		return 0, false
	})})
}

func (f *FakeBackend) openWorkspaces(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, map[string]any{"workspaces": f.listWhere(func(s *fakeSpace) (models.AccessType, bool) {
		return models.AccessViaURL, s.Status == models.WorkspaceActive && models.HasPublicLink(s.accesses)
	})})
}

func (f *FakeBackend) allWorkspaces(w http.ResponseWriter, r *http.Request) {
	if currentUser(r).Role != models.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.listWhere(func(*fakeSpace) (models.AccessType, bool) {
		return 0, true
	})
	// The admin listing names the owner under "owner", not "username".
	for i := range all {
		all[i].Owner, all[i].Username = all[i].Username, ""
	}
	writeJSON(w, map[string]any{"workspaces": all})
}

func (f *FakeBackend) getWorkspace(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.space(w, r); s != nil {
		writeJSON(w, s.detail())
	}
}

func (f *FakeBackend) newSpace(owner, title, description string, doc *fakeFile) *fakeSpace {
	sid := f.nextID()
	fid := f.nextID()
	f.files[fid] = doc
	root := &fakeBranch{Branch: models.Branch{
		ID:         f.nextID(),
		Name:       "master",
		Parent:     models.RootParent,
		AuthorName: owner,
		Document:   doc.name,
		DocumentID: fid,
		Status:     models.BranchActive,
	}}
	s := &fakeSpace{
		Workspace: models.Workspace{
			ID:          sid,
			Title:       title,
			Description: description,
			Username:    owner,
			Status:      models.WorkspaceActive,
			MainBranch:  root.ID,
		},
		branches: []*fakeBranch{root},
	}
	f.spaces[sid] = s
	f.spaceOrder = append(f.spaceOrder, sid)
	return s
}

func (f *FakeBackend) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var in backend.NewWorkspace
	if !readJSON(r, &in) || in.Title == "" {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	mt, data, err := filexfer.DecodeDataURL(in.DocumentData)
	if err != nil {
		http.Error(w, "bad document", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.newSpace(currentUser(r).Username, in.Title, in.Description, &fakeFile{name: in.DocumentName, contentType: mt, data: data})
	writeJSON(w, map[string]models.ID{"id": s.ID})
}

func (f *FakeBackend) ownerOnly(w http.ResponseWriter, r *http.Request, s *fakeSpace) bool {
	u := currentUser(r)
	if s.Username != u.Username && u.Role != models.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (f *FakeBackend) archiveWorkspace(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if !s.Status.CanBecome(models.WorkspaceArchived) {
		http.Error(w, "invalid transition", http.StatusBadRequest)
		return
	}
	s.Status = models.WorkspaceArchived
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) updateWorkspace(w http.ResponseWriter, r *http.Request) {
	var in backend.WorkspaceUpdate
	if !readJSON(r, &in) {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if in.Status != 0 {
		if !s.Status.CanBecome(in.Status) {
			http.Error(w, "invalid transition", http.StatusBadRequest)
			return
		}
		s.Status = in.Status
	}
	if in.Owner != "" {
		found := false
		for _, u := range f.users {
			if u.Username == in.Owner {
				found = true
			}
		}
		if !found {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		s.Username = in.Owner
	}
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	s.Status = models.WorkspaceDeleted
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) copyBranch(w http.ResponseWriter, r *http.Request) {
	var in backend.WorkspaceCopy
	if !readJSON(r, &in) || in.Title == "" {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil {
		return
	}
	b := s.branch(id(r, "bid"))
	if b == nil {
		http.Error(w, "branch not found", http.StatusNotFound)
		return
	}
	src := f.files[b.DocumentID]
	doc := &fakeFile{name: src.name, contentType: src.contentType, data: append([]byte(nil), src.data...)}
	ns := f.newSpace(currentUser(r).Username, in.Title, in.Description, doc)
	writeJSON(w, map[string]models.ID{"id": ns.ID})
}

/*─────────────────────────────────────────────────────────────────────────────*
| branches and requests                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) getBranch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil {
		return
	}
	b := s.branch(id(r, "bid"))
	if b == nil {
		http.Error(w, "branch not found", http.StatusNotFound)
		return
	}
	out := b.Branch
	if p := s.branch(b.Parent); p != nil {
		out.ParentName = p.Name
	}
	if file, ok := f.files[b.DocumentID]; ok {
		out.Document = file.name
	}
	out.Requests = []models.Request{}
	for _, rq := range s.requests {
		if rq.SourceBranchID == b.ID || rq.TargetBranchID == b.ID {
			out.Requests = append(out.Requests, *rq)
		}
	}
	writeJSON(w, out)
}

func (f *FakeBackend) addBranch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name           string    `json:"name"`
		DocumentID     models.ID `json:"document_id"`
		ParentBranchID models.ID `json:"parent_branch_id"`
	}
	if !readJSON(r, &in) || in.Name == "" {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil {
		return
	}
	if s.branch(in.ParentBranchID) == nil {
		http.Error(w, "parent not found", http.StatusNotFound)
		return
	}
	b := &fakeBranch{Branch: models.Branch{
		ID:         f.nextID(),
		Name:       in.Name,
		Parent:     in.ParentBranchID,
		AuthorName: currentUser(r).Username,
		DocumentID: in.DocumentID,
		Status:     models.BranchActive,
	}}
	s.branches = append(s.branches, b)
	writeJSON(w, map[string]models.ID{"id": b.ID})
}

func (f *FakeBackend) deleteBranch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil {
		return
	}
	bid := id(r, "bid")
	for i, b := range s.branches {
		if b.ID != bid {
			continue
		}
		if b.IsRoot() {
			http.Error(w, "cannot delete root", http.StatusBadRequest)
			return
		}
		s.branches = append(s.branches[:i], s.branches[i+1:]...)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Error(w, "branch not found", http.StatusNotFound)
}

func (f *FakeBackend) addRequest(w http.ResponseWriter, r *http.Request) {
	var in backend.NewRequest
	if !readJSON(r, &in) || in.Title == "" || in.SourceBranchID == in.TargetBranchID {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil {
		return
	}
	if s.branch(in.SourceBranchID) == nil || s.branch(in.TargetBranchID) == nil {
		http.Error(w, "branch not found", http.StatusNotFound)
		return
	}
	rq := &models.Request{
		ID:             f.nextID(),
		Title:          in.Title,
		Description:    in.Description,
		Status:         models.RequestOpen,
		SourceBranchID: in.SourceBranchID,
		TargetBranchID: in.TargetBranchID,
		AuthorName:     currentUser(r).Username,
	}
	s.requests = append(s.requests, rq)
	writeJSON(w, map[string]models.ID{"id": rq.ID})
}

func (f *FakeBackend) request(w http.ResponseWriter, r *http.Request) (*fakeSpace, *models.Request) {
	s := f.space(w, r)
	if s == nil {
		return nil, nil
	}
	rid := id(r, "rid")
	for _, rq := range s.requests {
		if rq.ID == rid {
			return s, rq
		}
	}
	http.Error(w, "request not found", http.StatusNotFound)
	return nil, nil
}

func (f *FakeBackend) getRequest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, rq := f.request(w, r); rq != nil {
		writeJSON(w, rq)
	}
}

func (f *FakeBackend) closeRequest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, rq := f.request(w, r); rq != nil {
		if !rq.Status.Actionable() {
			http.Error(w, "request is not open", http.StatusBadRequest)
			return
		}
		rq.Status = models.RequestClosed
		w.WriteHeader(http.StatusOK)
	}
}

func (f *FakeBackend) mergeRequest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, rq := f.request(w, r)
	if rq == nil {
		return
	}
	if !rq.Status.Actionable() {
		http.Error(w, "request is not open", http.StatusBadRequest)
		return
	}
	src, dst := s.branch(rq.SourceBranchID), s.branch(rq.TargetBranchID)
	if src == nil || dst == nil {
		http.Error(w, "branch not found", http.StatusNotFound)
		return
	}
	dst.DocumentID = src.DocumentID
	src.Status = models.BranchMerged
	rq.Status = models.RequestAccepted
	w.WriteHeader(http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| files and search                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) rename(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("new_name")
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id(r, "fid")]
	if !ok {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	if name == "" {
		http.Error(w, "empty name", http.StatusBadRequest)
		return
	}
	file.name = name
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DocumentName string `json:"document_name"`
		DocumentData string `json:"document_data"`
	}
	if !readJSON(r, &in) {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	mt, data, err := filexfer.DecodeDataURL(in.DocumentData)
	if err != nil {
		http.Error(w, "bad document", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id(r, "fid")]
	if !ok {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	file.name, file.contentType, file.data = in.DocumentName, mt, data
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) viewFile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	file, ok := f.files[id(r, "fid")]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", file.contentType)
	if file.name != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.name))
	}
	_, _ = w.Write(file.data)
}

func (f *FakeBackend) search(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(r.URL.Query().Get("name"))
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []models.SearchItem{}
	for _, sid := range f.spaceOrder {
		s := f.spaces[sid]
		for _, b := range s.branches {
			file, ok := f.files[b.DocumentID]
			if !ok || !strings.Contains(strings.ToLower(file.name), name) {
				continue
			}
			items = append(items, models.SearchItem{ID: b.DocumentID, Name: file.name, BranchID: b.ID, WorkspaceID: s.ID})
		}
	}
	writeJSON(w, map[string]any{"items": items})
}

/*─────────────────────────────────────────────────────────────────────────────*
| accesses                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func grantType(r *http.Request) string {
	if r.URL.Query().Get("view_only") == "true" {
		return "View"
	}
	return "Edit"
}

func (s *fakeSpace) setGrant(g models.AccessGrant) {
	for i, existing := range s.accesses {
		if existing.Kind == g.Kind && existing.Content == g.Content {
			s.accesses[i] = g
			return
		}
	}
	s.accesses = append(s.accesses, g)
}

func (s *fakeSpace) dropGrant(kind models.AccessKind, content string) bool {
	for i, g := range s.accesses {
		if g.Kind == kind && g.Content == content {
			s.accesses = append(s.accesses[:i], s.accesses[i+1:]...)
			return true
		}
	}
	return false
}

func (f *FakeBackend) listAccesses(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.space(w, r); s != nil {
		out := append([]models.AccessGrant{}, s.accesses...)
		writeJSON(w, map[string]any{"accesses": out})
	}
}

func (f *FakeBackend) grantUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if _, ok := f.users[email]; !ok {
		http.Error(w, "user does not exist", http.StatusNotFound)
		return
	}
	s.setGrant(models.AccessGrant{Kind: models.AccessUser, Content: email, Type: grantType(r)})
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) revokeUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if !s.dropGrant(models.AccessUser, chi.URLParam(r, "email")) {
		http.Error(w, "grant not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) grantDepartment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if _, ok := f.departments[name]; !ok {
		http.Error(w, "department does not exist", http.StatusNotFound)
		return
	}
	s.setGrant(models.AccessGrant{Kind: models.AccessDepartment, Content: name, Type: grantType(r)})
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) revokeDepartment(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if !s.dropGrant(models.AccessDepartment, chi.URLParam(r, "name")) {
		http.Error(w, "grant not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) grantURL(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	s.setGrant(models.AccessGrant{Kind: models.AccessURL, Type: "View"})
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) revokeURL(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.space(w, r)
	if s == nil || !f.ownerOnly(w, r, s) {
		return
	}
	if !s.dropGrant(models.AccessURL, "") {
		http.Error(w, "grant not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| departments and users                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) inDepartment(name string, uid models.ID) bool {
	for _, m := range f.departments[name] {
		if m == uid {
			return true
		}
	}
	return false
}

func (f *FakeBackend) listDepartments(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Department{}
	for _, name := range f.deptOrder {
		out = append(out, models.Department{Name: name})
	}
	writeJSON(w, map[string]any{"departments": out})
}

func (f *FakeBackend) createDepartment(w http.ResponseWriter, r *http.Request) {
	var in models.Department
	if !readJSON(r, &in) || in.Name == "" {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.departments[in.Name]; exists {
		http.Error(w, "department exists", http.StatusBadRequest)
		return
	}
	f.departments[in.Name] = nil
	f.deptOrder = append(f.deptOrder, in.Name)
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	var in models.Department
	if !readJSON(r, &in) {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.departments[in.Name]; !exists {
		http.Error(w, "department does not exist", http.StatusNotFound)
		return
	}
	delete(f.departments, in.Name)
	for i, n := range f.deptOrder {
		if n == in.Name {
			f.deptOrder = append(f.deptOrder[:i], f.deptOrder[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) userByID(uid models.ID) *fakeUser {
	for _, u := range f.users {
		if u.ID == uid {
			return u
		}
	}
	return nil
}

func (f *FakeBackend) listMembers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	f.mu.Lock()
	defer f.mu.Unlock()
	members, ok := f.departments[name]
	if !ok {
		http.Error(w, "department does not exist", http.StatusNotFound)
		return
	}
	out := []models.User{}
	for _, uid := range members {
		if u := f.userByID(uid); u != nil {
			out = append(out, u.User)
		}
	}
	writeJSON(w, map[string]any{"users": out})
}

func (f *FakeBackend) changeMembers(w http.ResponseWriter, r *http.Request, add bool) {
	name := r.URL.Query().Get("name")
	var in struct {
		Users []models.ID `json:"users"`
	}
	if !readJSON(r, &in) {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	members, ok := f.departments[name]
	if !ok {
		http.Error(w, "department does not exist", http.StatusNotFound)
		return
	}
	for _, uid := range in.Users {
		if f.userByID(uid) == nil {
			http.Error(w, "user does not exist", http.StatusNotFound)
			return
		}
	}
	for _, uid := range in.Users {
		if add {
			if !f.inDepartment(name, uid) {
				members = append(members, uid)
			}
			continue
		}
		for i, m := range members {
			if m == uid {
				members = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
	f.departments[name] = members
	w.WriteHeader(http.StatusOK)
}

func (f *FakeBackend) addMembers(w http.ResponseWriter, r *http.Request) {
	f.changeMembers(w, r, true)
}

func (f *FakeBackend) removeMembers(w http.ResponseWriter, r *http.Request) {
	f.changeMembers(w, r, false)
}

func (f *FakeBackend) listUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for i := 1; i <= f.seq; i++ {
		if u := f.userByID(models.ID(strconv.Itoa(i))); u != nil {
			out = append(out, u.User)
		}
	}
	writeJSON(w, map[string]any{"users": out})
}

func (f *FakeBackend) deleteUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.userByID(id(r, "uid"))
	if u == nil {
		http.Error(w, "user does not exist", http.StatusNotFound)
		return
	}
	delete(f.users, u.Email)
	w.WriteHeader(http.StatusOK)
}
