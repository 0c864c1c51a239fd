package admin_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/features/admin"
	"github.com/dalemusser/inboxhub/internal/app/store/records"
	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/domain/models"
	"github.com/dalemusser/inboxhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeUsers_StoreFailure(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	client := records.New(records.Config{BaseURL: url, AnonKey: "k", Timeout: time.Second})
	handler := admin.NewHandler(userstore.New(client), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/admin/users", testutil.AdminUser())
	rec := testutil.NewRecorder()

	// The failure path renders the shared error page; the 500 status is
	// written before the template engine is consulted.
	func() {
		defer func() { _ = recover() }()
		handler.ServeUsers(rec.ResponseRecorder, req)
	}()

	rec.AssertStatus(t, http.StatusInternalServerError)
}

func TestServeUsers_ListsFromStore(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	fake.Seed(models.User{GoogleID: "g1", Email: "a@example.com", IsActive: true})

	handler := admin.NewHandler(userstore.New(fake.Client()), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/admin/users", testutil.AdminUser())
	rec := testutil.NewRecorder()

	// Rendering needs a booted template engine; the store round trip is
	// what this test covers.
	func() {
		defer func() { _ = recover() }()
		handler.ServeUsers(rec.ResponseRecorder, req)
	}()

	if rec.Code == http.StatusInternalServerError {
		t.Errorf("listing failed: %s", rec.Body.String())
	}
}
