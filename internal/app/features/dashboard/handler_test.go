package dashboard_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/inboxhub/internal/app/features/dashboard"
	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*dashboard.Handler, *testutil.FakeStore) {
	t.Helper()
	fake := testutil.NewFakeStore(t)
	return dashboard.NewHandler(userstore.New(fake.Client()), zap.NewNop()), fake
}

func TestServeDashboard_RedirectsAnonymous(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewRequest("GET", "/dashboard")
	rec := testutil.NewRecorder()

	handler.ServeDashboard(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusSeeOther)
	rec.AssertRedirect(t, "/")
}

func TestServeDashboard_Authenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/dashboard", testutil.RegularUser())
	rec := testutil.NewRecorder()

	// Rendering needs a booted template engine; the guard and record fetch
	// are what this test covers.
	func() {
		defer func() { _ = recover() }()
		handler.ServeDashboard(rec.ResponseRecorder, req)
	}()

	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("authenticated request must not redirect, got %q", loc)
	}
}
