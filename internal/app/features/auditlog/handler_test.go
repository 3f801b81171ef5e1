package auditlog

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/paging"
	"github.com/dalemusser/sudhub/internal/testutil"
	"go.uber.org/zap"
)

func TestParseFilters(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/audit?category=workspace&event_type=branch_create&actor=a@b.c&outcome=failed&start_date=2026-01-02&end_date=2026-01-03", nil)
	f, q := parseFilters(req)

	if q.Category != audit.CategoryWorkspace || q.EventType != "branch_create" || q.Actor != "a@b.c" {
		t.Errorf("query = %+v", q)
	}
	if q.Success == nil || *q.Success {
		t.Error("outcome=failed should filter on success=false")
	}
	if q.StartTime == nil || !q.StartTime.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", q.StartTime)
	}
	if q.EndTime == nil || q.EndTime.Day() != 3 || q.EndTime.Hour() != 23 {
		t.Errorf("end = %v", q.EndTime)
	}
	if f.StartDate != "2026-01-02" {
		t.Errorf("form start = %q", f.StartDate)
	}
}

func TestParseFilters_DropsUnknownValues(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/audit?category=billing&outcome=maybe&start_date=yesterday", nil)
	f, q := parseFilters(req)

	if q.Category != "" || f.Category != "" {
		t.Errorf("unknown category kept: %q / %q", q.Category, f.Category)
	}
	if q.Success != nil || f.Outcome != "" {
		t.Error("unknown outcome kept")
	}
	if q.StartTime != nil {
		t.Error("unparsable date should not filter")
	}
	if f.StartDate != "yesterday" {
		t.Errorf("form should keep the typed date, got %q", f.StartDate)
	}
}

func TestFiltersURL(t *testing.T) {
	if got := (filters{}).url(1); got != "/admin/audit" {
		t.Errorf("empty = %q", got)
	}
	got := filters{Category: "auth", Actor: "x@y.z"}.url(51)
	for _, want := range []string{"category=auth", "actor=x%40y.z", "start=51"} {
		if !strings.Contains(got, want) {
			t.Errorf("url %q missing %q", got, want)
		}
	}
}

func TestEventTypesForCategory(t *testing.T) {
	all := eventTypesForCategory("")
	seen := map[string]bool{}
	for _, e := range all {
		if seen[e] {
			t.Errorf("duplicate event type %q", e)
		}
		seen[e] = true
	}
	for _, c := range allCategories() {
		for _, e := range eventTypesForCategory(c.Value) {
			if !seen[e] {
				t.Errorf("%s event %q missing from the full list", c.Value, e)
			}
		}
	}
}

func TestLoad_Pages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	h := NewHandler(store, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < paging.PageSize+5; i++ {
		ev := audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Category:  audit.CategoryWorkspace,
			EventType: "branch_create",
			Actor:     "alice@test.com",
			Success:   true,
		}
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout}); err != nil {
		t.Fatal(err)
	}

	q := audit.QueryFilter{Category: audit.CategoryWorkspace}
	first, err := h.load(ctx, q, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.items) != paging.PageSize || !first.hasNext || first.total != int64(paging.PageSize+5) {
		t.Errorf("first page: %d items, next %v, total %d", len(first.items), first.hasNext, first.total)
	}
	if !first.items[0].Timestamp.After(first.items[1].Timestamp) {
		t.Error("events should be newest first")
	}

	second, err := h.load(ctx, q, paging.PageSize+1)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.items) != 5 || second.hasNext {
		t.Errorf("second page: %d items, next %v", len(second.items), second.hasNext)
	}
}
