package preferences_test

import (
	"testing"

	"github.com/dalemusser/sudhub/internal/app/store/preferences"
	"github.com/dalemusser/sudhub/internal/testutil"
)

func TestStore_LastWorkspace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := preferences.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	got, err := store.LastWorkspace(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("LastWorkspace failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}

	if err := store.SetLastWorkspace(ctx, "Alice@Example.com ", "12"); err != nil {
		t.Fatalf("SetLastWorkspace failed: %v", err)
	}
	if err := store.SetLastWorkspace(ctx, "alice@example.com", "14"); err != nil {
		t.Fatalf("second SetLastWorkspace failed: %v", err)
	}
	got, err = store.LastWorkspace(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("LastWorkspace failed: %v", err)
	}
	if got != "14" {
		t.Errorf("LastWorkspace = %q, want 14", got)
	}

	if err := store.ClearLastWorkspace(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ClearLastWorkspace failed: %v", err)
	}
	got, _ = store.LastWorkspace(ctx, "alice@example.com")
	if got != "" {
		t.Errorf("after clear got %q", got)
	}
}

func TestStore_Get_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := preferences.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Get(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.LoginID != "nobody@example.com" || !p.ID.IsZero() {
		t.Errorf("unexpected preference: %+v", p)
	}
}
