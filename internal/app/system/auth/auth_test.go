package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

// stubFetcher returns a fixed user for one id and nil for everything else.
type stubFetcher struct {
	id   string
	user *auth.SessionUser
}

func (s *stubFetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	if userID != s.id || s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestSignIn_SetsCookie(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	if err := sm.SignIn(rec, req, "user-1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie to be set")
	}
}

func signedInRequest(t *testing.T, sm *auth.SessionManager, userID, target string) *http.Request {
	t.Helper()

	setup := httptest.NewRequest("GET", "/setup", nil)
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, setup, userID); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	req := httptest.NewRequest("GET", target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestLoadSessionUser_FetchesFreshUser(t *testing.T) {
	sm := newManager(t)
	sm.SetUserFetcher(&stubFetcher{
		id:   "user-1",
		user: &auth.SessionUser{ID: "user-1", Name: "Alice", Email: "alice@example.com"},
	})

	req := signedInRequest(t, sm, "user-1", "/dashboard")
	rec := httptest.NewRecorder()

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	handler.ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.Name != "Alice" {
		t.Errorf("name: got %q, want %q", got.Name, "Alice")
	}
}

func TestLoadSessionUser_DeactivatedUserDropped(t *testing.T) {
	sm := newManager(t)
	// Fetcher knows no users: simulates a row deleted or deactivated after
	// the cookie was issued.
	sm.SetUserFetcher(&stubFetcher{})

	req := signedInRequest(t, sm, "user-1", "/dashboard")
	rec := httptest.NewRecorder()

	called := false
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user in context for unknown id")
		}
	}))
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("next handler was not called")
	}
}

func TestLoadSessionUser_SetsAdminFlag(t *testing.T) {
	sm := newManager(t)
	sm.SetAdminEmail("admin@example.com")
	sm.SetUserFetcher(&stubFetcher{
		id:   "user-1",
		user: &auth.SessionUser{ID: "user-1", Email: "admin@example.com"},
	})

	req := signedInRequest(t, sm, "user-1", "/admin/users")
	rec := httptest.NewRecorder()

	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r)
		if u == nil || !u.IsAdmin {
			t.Error("expected admin flag for configured email")
		}
	}))
	handler.ServeHTTP(rec, req)
}

func TestLoadSessionUser_AdminEmailCaseSensitive(t *testing.T) {
	sm := newManager(t)
	sm.SetAdminEmail("admin@example.com")
	sm.SetUserFetcher(&stubFetcher{
		id:   "user-1",
		user: &auth.SessionUser{ID: "user-1", Email: "Admin@example.com"},
	})

	req := signedInRequest(t, sm, "user-1", "/admin/users")
	rec := httptest.NewRecorder()

	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r)
		if u == nil {
			t.Fatal("expected user in context")
		}
		if u.IsAdmin {
			t.Error("admin comparison must be case-sensitive")
		}
	}))
	handler.ServeHTTP(rec, req)
}

func TestRequireSignedIn_RedirectsBrowsers(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for anonymous request")
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/?return=%2Fdashboard" {
		t.Errorf("location: got %q", loc)
	}
}

func TestRequireSignedIn_401ForNonHTML(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	rec := httptest.NewRecorder()

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSignedIn_PassesAuthenticated(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "user-1"})
	rec := httptest.NewRecorder()

	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to run for authenticated request")
	}
}

func TestRequireAdmin_ForbidsNonAdmin(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Accept", "text/html")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "user-1", Email: "user@example.com"})
	rec := httptest.NewRecorder()

	handler := sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for non-admin")
	}))
	handler.ServeHTTP(rec, req)

	// Signed-in non-admins get a plain 403, never a redirect.
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireAdmin_RedirectsAnonymous(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler := sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	sm := newManager(t)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "user-1", Email: "admin@example.com", IsAdmin: true})
	rec := httptest.NewRecorder()

	called := false
	handler := sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to run for admin")
	}
}
