package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		Actor:     "alice@example.com",
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}
	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByActor(ctx, "alice@example.com", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_Log_WithDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkspace,
		EventType:     "delete_branch",
		Actor:         "bob@example.com",
		Target:        "workspace/3/branch/9",
		Success:       false,
		FailureReason: "HTTP 404",
		Details:       map[string]string{"status": "404"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetRecent(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Target != "workspace/3/branch/9" || got.FailureReason != "HTTP 404" || got.Details["status"] != "404" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestStore_GetRecent_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	for i, typ := range []string{"first", "second", "third"} {
		err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAdmin,
			EventType: typ,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetRecent(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != "third" || events[1].EventType != "second" {
		t.Errorf("unexpected order: %s, %s", events[0].EventType, events[1].EventType)
	}
}

func TestStore_GetRecent_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Actor: "a@x", Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Actor: "a@x", Success: false},
		{Category: audit.CategoryWorkspace, EventType: "create_workspace", Actor: "b@x", Success: true},
		{Category: audit.CategoryAdmin, EventType: "delete_user", Actor: "root@x", Success: true},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	failed := false
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"by category", audit.QueryFilter{Category: audit.CategoryAuth}, 2},
		{"by event type", audit.QueryFilter{EventType: "create_workspace"}, 1},
		{"by actor", audit.QueryFilter{Actor: "a@x"}, 2},
		{"failures only", audit.QueryFilter{Success: &failed}, 1},
		{"offset", audit.QueryFilter{Offset: 3}, 1},
		{"all", audit.QueryFilter{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
			n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: tt.filter.Category, EventType: tt.filter.EventType, Actor: tt.filter.Actor, Success: tt.filter.Success})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if tt.filter.Offset == 0 && n != int64(tt.want) {
				t.Errorf("count = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestStore_Query_ByTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: "old", Timestamp: old})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: "new", Timestamp: now})

	start := now.Add(-time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "new" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Actor: "a@x", Success: false})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Actor: "a@x", Success: true})

	events, err := store.GetFailedLogins(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 failed login, got %d", len(events))
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	// Idempotent
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("second EnsureIndexes failed: %v", err)
	}
}
