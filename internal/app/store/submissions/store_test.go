package submissions_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/sudhub/internal/app/store/submissions"
	"github.com/dalemusser/sudhub/internal/testutil"
	"github.com/google/uuid"
)

func TestStore_Claim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := submissions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx, time.Hour); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	token := uuid.NewString()
	if err := store.Claim(ctx, token, "alice@example.com", "create_branch"); err != nil {
		t.Fatalf("first Claim failed: %v", err)
	}
	err := store.Claim(ctx, token, "alice@example.com", "create_branch")
	if !errors.Is(err, submissions.ErrDuplicate) {
		t.Fatalf("second Claim err = %v, want ErrDuplicate", err)
	}

	sub, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sub.LoginID != "alice@example.com" || sub.Operation != "create_branch" {
		t.Errorf("unexpected submission: %+v", sub)
	}
}

func TestStore_Claim_EmptyToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := submissions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Claim(ctx, "  ", "a@x", "op"); !errors.Is(err, submissions.ErrEmptyToken) {
		t.Errorf("err = %v, want ErrEmptyToken", err)
	}
}

func TestStore_Release(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := submissions.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx, 0); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	token := uuid.NewString()
	if err := store.Claim(ctx, token, "a@x", "op"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := store.Release(ctx, token); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := store.Claim(ctx, token, "a@x", "op"); err != nil {
		t.Errorf("Claim after Release failed: %v", err)
	}
}
