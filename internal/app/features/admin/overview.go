// internal/app/features/admin/overview.go
package admin

import (
	"context"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/app/system/timeouts"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const overviewPath = "/admin"

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeOverview lists every workspace and the most recent audit events.
// ?modal=change-owner&ws=<id> and ?modal=delete-workspace&ws=<id> open the
// dialogs for one workspace.
func (h *Handler) ServeOverview(w http.ResponseWriter, r *http.Request) {
	st := modal.State{Active: modal.FromRequest(r)}
	h.renderOverview(w, r, models.ID(query.Get(r, "ws")), st, "")
}

func (h *Handler) renderOverview(w http.ResponseWriter, r *http.Request, selected models.ID, st modal.State, owner string) {
	sess := h.session(r)
	all, ok := viewstate.FetchCollection(r.Context(), "There are no workspaces.", func(ctx context.Context) ([]models.Workspace, error) {
		return sess.AllWorkspaces(ctx)
	})
	if !ok {
		return
	}
	if h.ErrLog.SessionExpired(w, r, viewstate.Rejected(all.Cause())) {
		return
	}

	data := overviewData{
		BaseVM:     viewdata.NewBaseVM(r, "Administration", "/workspaces"),
		Workspaces: all,
		Modal:      st,
		Owner:      owner,
		FormToken:  mutate.NewToken(),
	}
	for i := range all.Items {
		if all.Items[i].ID == selected && !selected.IsZero() {
			ws := all.Items[i]
			data.Selected = &ws
			data.NextStatus = statusOptions(ws.Status)
		}
	}
	if (st.Is(modal.ChangeOwner) || st.Is(modal.DeleteWorkspace)) && data.Selected == nil {
		data.Modal = modal.State{}
		data.Notice = st.Error
	}

	if h.Events != nil {
		data.HasEvents = true
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin recent audit")
		defer cancel()
		events, err := h.Events.GetRecent(ctx, recentEvents)
		if err != nil {
			h.Log.Warn("load recent audit events failed", zap.Error(err))
			data.EventsErr = "Recent activity could not be loaded."
		}
		for _, e := range events {
			data.Events = append(data.Events, eventRow{
				Timestamp: e.Timestamp,
				Category:  e.Category,
				EventType: e.EventType,
				Actor:     e.Actor,
				Target:    e.Target,
				Success:   e.Success,
				Reason:    e.FailureReason,
			})
		}
	}

	templates.Render(w, r, "admin_overview", data)
}
