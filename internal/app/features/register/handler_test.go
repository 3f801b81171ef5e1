package register_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/features/register"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*register.Handler, *testutil.FakeBackend) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	logger := zap.NewNop()
	return register.NewHandler(fb.Client(), uierrors.NewErrorLogger(logger), auditlog.NewNopLogger(), logger), fb
}

func post(h *register.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	testutil.RenderSafely(func() { h.HandleRegister(rec, req) })
	return rec
}

func TestHandleRegister_Success(t *testing.T) {
	h, fb := newTestHandler(t)

	rec := post(h, url.Values{
		"username": {"Bob"},
		"email":    {"bob@example.com"},
		"password": {"secret1"},
		"confirm":  {"secret1"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?registered=1" {
		t.Errorf("Location = %q", loc)
	}

	// The new account can sign in, with the default client role.
	sess := fb.Client().Session(backend.NewMemoryCredential(""))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := sess.Login(ctx, "bob@example.com", "secret1"); err != nil {
		t.Fatalf("Login after register: %v", err)
	}
	id, err := sess.Whoami(ctx)
	if err != nil {
		t.Fatalf("Whoami: %v", err)
	}
	if id.Username != "Bob" || id.Role != "2" {
		t.Errorf("identity = %+v", id)
	}
}

func TestHandleRegister_PasswordMismatch(t *testing.T) {
	h, fb := newTestHandler(t)

	rec := post(h, url.Values{
		"username": {"Bob"},
		"email":    {"bob@example.com"},
		"password": {"secret1"},
		"confirm":  {"secret2"},
	})
	if rec.Code == http.StatusSeeOther {
		t.Error("mismatched passwords must not redirect")
	}
	if fb.CallCount("POST /registration") != 0 {
		t.Error("invalid form must not reach the backend")
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	h, fb := newTestHandler(t)
	fb.AddUser("Alice", "alice@example.com", "pw", "2")

	rec := post(h, url.Values{
		"username": {"Alice 2"},
		"email":    {"alice@example.com"},
		"password": {"secret1"},
		"confirm":  {"secret1"},
	})
	if rec.Code == http.StatusSeeOther {
		t.Error("duplicate email must re-render the form")
	}
	if fb.CallCount("POST /registration") != 1 {
		t.Error("expected exactly one backend call")
	}
}
