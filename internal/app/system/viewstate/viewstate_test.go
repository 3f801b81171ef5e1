package viewstate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
)

func TestFetchCollection(t *testing.T) {
	ctx := context.Background()

	c, ok := FetchCollection(ctx, "No workspaces yet.", func(context.Context) ([]string, error) {
		return nil, nil
	})
	if !ok || !c.Empty() || c.Failed() || c.EmptyMessage != "No workspaces yet." {
		t.Errorf("empty result: %+v ok=%v", c, ok)
	}

	c, ok = FetchCollection(ctx, "none", func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if !ok || c.Empty() || c.Len() != 2 {
		t.Errorf("full result: %+v", c)
	}

	c, ok = FetchCollection(ctx, "none", func(context.Context) ([]string, error) {
		return []string{"partial"}, &backend.StatusError{Code: 500}
	})
	if !ok || !c.Failed() || c.Items != nil || c.Empty() {
		t.Errorf("error result must carry no items: %+v", c)
	}
}

func TestFetchCollection_CancelledIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, ok := FetchCollection(ctx, "none", func(context.Context) ([]int, error) {
		cancel()
		return []int{1}, nil
	})
	if ok {
		t.Error("result after cancellation should be discarded")
	}
}

func TestDetail_StateMachine(t *testing.T) {
	ctx := context.Background()
	var d Detail[string]

	if d.Phase() != Empty {
		t.Fatalf("zero phase = %v", d.Phase())
	}
	if d.Resolve(ctx, "x", nil) {
		t.Error("Resolve without Select must be ignored")
	}

	d.Select("ws-1")
	if d.Phase() != Loading {
		t.Fatalf("after Select phase = %v", d.Phase())
	}
	d.Resolve(ctx, "Contract A", nil)
	if !d.IsLoaded() || d.Value() != "Contract A" {
		t.Fatalf("after Resolve: %v %q", d.Phase(), d.Value())
	}

	if !d.Reload() || d.Phase() != Loading {
		t.Fatal("Loaded should go back to Loading on Reload")
	}
	d.Resolve(ctx, "", &backend.StatusError{Code: 404})
	if d.Phase() != Failed || !errors.Is(d.Err(), backend.ErrNotFound) {
		t.Fatalf("after failed Resolve: %v %v", d.Phase(), d.Err())
	}
	if d.Reload() {
		t.Error("Failed must not Reload")
	}
	if d.Select("ws-1") {
		t.Error("Failed must not be left by re-selecting the same key")
	}
	if !d.Select("ws-2") || d.Phase() != Loading || d.Value() != "" {
		t.Error("a new selection replaces the previous state wholesale")
	}
}

func TestLoadDetail_CancelledIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d, ok := LoadDetail(ctx, "b-1", func(context.Context) (int, error) {
		cancel()
		return 7, nil
	})
	if ok || d.IsLoaded() {
		t.Errorf("late result should be discarded, phase=%v", d.Phase())
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&backend.TransportError{Op: "x", Err: errors.New("dial")}, "could not be reached"},
		{&backend.StatusError{Code: 404}, "Not found."},
		{&backend.StatusError{Code: 403}, "do not have access"},
		{&backend.StatusError{Code: 500}, "500 Internal Server Error"},
		{errors.New("odd"), "Something went wrong."},
	}
	for _, tt := range tests {
		got := ErrorMessage(tt.err)
		if tt.want == "" && got != "" || !strings.Contains(got, tt.want) {
			t.Errorf("ErrorMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestRejected(t *testing.T) {
	c, _ := FetchCollection(context.Background(), "none", func(context.Context) ([]string, error) {
		return nil, &backend.StatusError{Op: "owned workspaces", Code: 401}
	})
	if c.Cause() == nil {
		t.Fatal("Cause() = nil for failed list")
	}
	if Rejected(nil, &backend.StatusError{Code: 500}) != nil {
		t.Error("500 reported as rejected")
	}
	if Rejected(nil, c.Cause()) != c.Cause() {
		t.Error("401 not reported as rejected")
	}
}
