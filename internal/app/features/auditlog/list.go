// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/paging"
	"github.com/dalemusser/sudhub/internal/app/system/timeouts"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// parseFilters reads the filter parameters. Values that do not parse are
// dropped from the query but kept in the form.
func parseFilters(r *http.Request) (filters, audit.QueryFilter) {
	f := filters{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Actor:     strings.TrimSpace(query.Get(r, "actor")),
		Outcome:   strings.TrimSpace(query.Get(r, "outcome")),
		StartDate: strings.TrimSpace(query.Get(r, "start_date")),
		EndDate:   strings.TrimSpace(query.Get(r, "end_date")),
	}

	q := audit.QueryFilter{
		EventType: f.EventType,
		Actor:     f.Actor,
	}
	if validCategory(f.Category) {
		q.Category = f.Category
	} else {
		f.Category = ""
	}
	switch f.Outcome {
	case "ok":
		ok := true
		q.Success = &ok
	case "failed":
		failed := false
		q.Success = &failed
	default:
		f.Outcome = ""
	}
	if t, err := time.Parse(dateLayout, f.StartDate); err == nil {
		q.StartTime = &t
	}
	if t, err := time.Parse(dateLayout, f.EndDate); err == nil {
		// End of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		q.EndTime = &end
	}
	return f, q
}

func (f filters) url(start int) string {
	v := url.Values{}
	for k, s := range map[string]string{
		"category":   f.Category,
		"event_type": f.EventType,
		"actor":      f.Actor,
		"outcome":    f.Outcome,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	} {
		if s != "" {
			v.Set(k, s)
		}
	}
	if start > 1 {
		v.Set("start", strconv.Itoa(start))
	}
	if len(v) == 0 {
		return "/admin/audit"
	}
	return "/admin/audit?" + v.Encode()
}

type page struct {
	items   []listItem
	total   int64
	hasNext bool
}

// load fetches one page of events starting at the 1-based index start.
func (h *Handler) load(ctx context.Context, q audit.QueryFilter, start int) (page, error) {
	q.Limit = paging.LimitPlusOne()
	q.Offset = paging.Offset(start)

	events, err := h.Events.Query(ctx, q)
	if err != nil {
		return page{}, err
	}
	total, err := h.Events.CountByFilter(ctx, q)
	if err != nil {
		return page{}, err
	}

	events, more := paging.Trim(events)
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			Actor:     e.Actor,
			Target:    e.Target,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		})
	}
	return page{items: items, total: total, hasNext: more}, nil
}

// ServeList handles GET /admin/audit: stored audit events, newest first,
// with filtering and paging.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	f, q := parseFilters(r)
	start := paging.ParseStart(r)

	p, err := h.load(ctx, q, start)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.", "/admin")
		return
	}

	rng := paging.ComputeRange(start, len(p.items))
	templates.Render(w, r, "audit_list", listData{
		BaseVM:     viewdata.NewBaseVM(r, "Audit Log", "/admin"),
		Items:      p.items,
		filters:    f,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(f.Category),
		Total:      p.total,
		Range:      rng,
		HasPrev:    start > 1,
		HasNext:    p.hasNext,
		PrevURL:    f.url(rng.PrevStart),
		NextURL:    f.url(rng.NextStart),
	})
}
