// internal/app/features/search/handler.go
package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves document search and the inline branch panel.
type Handler struct {
	Backend *backend.Client
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler creates a new search Handler.
func NewHandler(be *backend.Client, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Backend: be, ErrLog: errLog, Log: logger}
}

type searchInput struct {
	Name string `validate:"notblank,max=200" label:"Search" msg:"Enter a search term"`
}

type resultRow struct {
	models.SearchItem
	PanelURL  string
	BranchURL string
}

type searchData struct {
	viewdata.BaseVM
	Query     string
	Submitted bool
	Error     string
	Results   viewstate.Collection[resultRow]
	Panel     panelData
}

type panelData struct {
	WorkspaceID models.ID
	Branch      *viewstate.Detail[models.Branch]
}

func (p panelData) Selected() bool { return p.Branch != nil }

func branchURL(spaceID, branchID models.ID) string {
	return "/workspaces/" + spaceID.String() + "/branches/" + branchID.String()
}

func panelURL(q string, spaceID, branchID models.ID) string {
	v := url.Values{"ws": {spaceID.String()}, "b": {branchID.String()}}
	if q != "" {
		v.Set("name", q)
	}
	return "/search/branch?" + v.Encode()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /search?name=                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSearch renders the search form and, once a term is submitted, the
// matching documents. A blank term is refused without calling the backend.
// ws and b select a result whose branch is shown beside the list.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := searchData{
		BaseVM: viewdata.NewBaseVM(r, "Search", "/workspaces"),
	}

	_, data.Submitted = r.URL.Query()["name"]
	data.Query = strings.TrimSpace(query.Get(r, "name"))

	if data.Submitted {
		if res := inputval.Validate(searchInput{Name: data.Query}); res.HasErrors() {
			data.Error = res.First()
			templates.Render(w, r, "search_page", data)
			return
		}

		sess := h.Backend.Session(auth.CredentialFrom(r))
		items, ok := viewstate.FetchCollection(ctx, "No documents match that name.", func(ctx context.Context) ([]models.SearchItem, error) {
			return sess.Search(ctx, data.Query)
		})
		if !ok {
			return
		}
		if h.ErrLog.SessionExpired(w, r, viewstate.Rejected(items.Cause())) {
			return
		}
		data.Results = viewstate.Collection[resultRow]{Err: items.Err, EmptyMessage: items.EmptyMessage}
		for _, it := range items.Items {
			data.Results.Items = append(data.Results.Items, resultRow{
				SearchItem: it,
				PanelURL:   panelURL(data.Query, it.WorkspaceID, it.BranchID),
				BranchURL:  branchURL(it.WorkspaceID, it.BranchID),
			})
		}
	}

	spaceID, branchID := models.ID(query.Get(r, "ws")), models.ID(query.Get(r, "b"))
	if !spaceID.IsZero() && !branchID.IsZero() {
		p, ok := h.loadPanel(ctx, r, spaceID, branchID)
		if !ok {
			return
		}
		if h.ErrLog.SessionExpired(w, r, viewstate.Rejected(p.Branch.Err())) {
			return
		}
		data.Panel = p
	}

	templates.Render(w, r, "search_page", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /search/branch?ws=&b=                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeBranchPanel returns the branch panel as an htmx fragment. Without
// htmx the browser is sent back to the search page with the result
// selected.
func (h *Handler) ServeBranchPanel(w http.ResponseWriter, r *http.Request) {
	spaceID, branchID := models.ID(query.Get(r, "ws")), models.ID(query.Get(r, "b"))
	if spaceID.IsZero() || branchID.IsZero() {
		if r.Header.Get("HX-Request") != "" {
			h.ErrLog.HTMXLogBadRequest(w, r, "branch panel without ids", nil, "Choose a search result.")
			return
		}
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	if r.Header.Get("HX-Request") == "" {
		v := url.Values{"ws": {spaceID.String()}, "b": {branchID.String()}}
		if q := query.Get(r, "name"); q != "" {
			v.Set("name", q)
		}
		http.Redirect(w, r, "/search?"+v.Encode(), http.StatusSeeOther)
		return
	}

	p, ok := h.loadPanel(r.Context(), r, spaceID, branchID)
	if !ok {
		return
	}
	if h.ErrLog.SessionExpired(w, r, p.Branch.Err()) {
		return
	}
	templates.RenderSnippet(w, "search_branch_panel", p)
}

func (h *Handler) loadPanel(ctx context.Context, r *http.Request, spaceID, branchID models.ID) (panelData, bool) {
	sess := h.Backend.Session(auth.CredentialFrom(r))
	d, ok := viewstate.LoadDetail(ctx, branchID.String(), func(ctx context.Context) (models.Branch, error) {
		return sess.Branch(ctx, spaceID, branchID)
	})
	if !ok {
		return panelData{}, false
	}
	if err := d.Err(); err != nil && !errors.Is(err, backend.ErrNotFound) {
		h.Log.Warn("load search branch failed", zap.String("branch", branchID.String()), zap.Error(err))
	}
	return panelData{WorkspaceID: spaceID, Branch: d}, true
}
