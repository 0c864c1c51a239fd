package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/features/authgoogle"
	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"github.com/dalemusser/inboxhub/internal/app/system/metrics"
	"github.com/dalemusser/inboxhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// fakeGoogle stands in for Google's token and userinfo endpoints.
type fakeGoogle struct {
	srv  *httptest.Server
	info map[string]any
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	g := &fakeGoogle{
		info: map[string]any{
			"id":             "google-123",
			"email":          "alice@example.com",
			"verified_email": true,
			"name":           "Alice",
			"picture":        "https://example.com/alice.png",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(g.info)
	})

	g.srv = httptest.NewServer(mux)
	t.Cleanup(g.srv.Close)
	return g
}

func newTestHandler(t *testing.T, google *fakeGoogle) (*authgoogle.Handler, *testutil.FakeStore, *auth.SessionManager) {
	t.Helper()

	fake := testutil.NewFakeStore(t)
	users := userstore.New(fake.Client())

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	h := authgoogle.NewHandler(users, sm, metrics.NewCollector(),
		"test-client-id", "test-client-secret", "http://app.test", false, zap.NewNop())
	if google != nil {
		h.Endpoint = oauth2.Endpoint{
			AuthURL:  google.srv.URL + "/auth",
			TokenURL: google.srv.URL + "/token",
		}
		h.UserInfoURL = google.srv.URL + "/userinfo"
	}

	return h, fake, sm
}

// startLogin runs ServeLogin and returns the state value plus the cookie
// carrying it.
func startLogin(t *testing.T, h *authgoogle.Handler) (string, *http.Cookie) {
	t.Helper()

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("login status: got %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("no state in authorization URL")
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			if c.Value != state {
				t.Fatalf("state cookie %q does not match URL state %q", c.Value, state)
			}
			return state, c
		}
	}
	t.Fatal("no oauth_state cookie set")
	return "", nil
}

func runCallback(h *authgoogle.Handler, state string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/auth/google/callback?state="+url.QueryEscape(state)+"&code=fake-code", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)
	return rec
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)
	h.ClientID = ""

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/?error=google_not_configured" {
		t.Errorf("location: got %q", loc)
	}
}

func TestCallback_FirstLoginCreatesUserAndWelcomes(t *testing.T) {
	google := newFakeGoogle(t)
	h, fake, _ := newTestHandler(t, google)

	state, cookie := startLogin(t, h)
	rec := runCallback(h, state, cookie)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard?welcome=true" {
		t.Errorf("location: got %q, want %q", loc, "/dashboard?welcome=true")
	}

	users := fake.Users()
	if len(users) != 1 {
		t.Fatalf("users in store: got %d, want 1", len(users))
	}
	if users[0].GoogleID != "google-123" || users[0].Email != "alice@example.com" {
		t.Errorf("unexpected user row: %+v", users[0])
	}

	// Session cookie established.
	sessionSet := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.Value != "" {
			sessionSet = true
		}
	}
	if !sessionSet {
		t.Error("expected session cookie after successful callback")
	}
}

func TestCallback_RepeatLoginSkipsWelcome(t *testing.T) {
	google := newFakeGoogle(t)
	h, fake, _ := newTestHandler(t, google)

	state1, cookie1 := startLogin(t, h)
	runCallback(h, state1, cookie1)

	state2, cookie2 := startLogin(t, h)
	rec := runCallback(h, state2, cookie2)

	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("location: got %q, want %q", loc, "/dashboard")
	}

	users := fake.Users()
	if len(users) != 1 {
		t.Fatalf("users in store after repeat login: got %d, want 1", len(users))
	}
	if users[0].LastLogin == nil {
		t.Error("expected last_login stamped on repeat login")
	}
}

func TestCallback_ResumesReturnTarget(t *testing.T) {
	google := newFakeGoogle(t)
	h, _, _ := newTestHandler(t, google)

	state1, cookie1 := startLogin(t, h)
	runCallback(h, state1, cookie1)

	// Second login carries the destination the signed-out user was headed
	// for; the flow stashes it in a cookie for the round trip.
	req := httptest.NewRequest("GET", "/auth/google?return=%2Fadmin%2Fusers", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	state := loc.Query().Get("state")

	var stateC, returnC *http.Cookie
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case "oauth_state":
			stateC = c
		case "oauth_return":
			returnC = c
		}
	}
	if stateC == nil {
		t.Fatal("no oauth_state cookie set")
	}
	if returnC == nil {
		t.Fatal("no oauth_return cookie set for the return target")
	}
	if returnC.Value != "/admin/users" {
		t.Fatalf("return cookie: got %q, want %q", returnC.Value, "/admin/users")
	}

	cbReq := httptest.NewRequest("GET", "/auth/google/callback?state="+url.QueryEscape(state)+"&code=fake-code", nil)
	cbReq.AddCookie(stateC)
	cbReq.AddCookie(returnC)
	cbRec := httptest.NewRecorder()
	h.ServeCallback(cbRec, cbReq)

	if dest := cbRec.Header().Get("Location"); dest != "/admin/users" {
		t.Errorf("post-login destination: got %q, want %q", dest, "/admin/users")
	}

	// The carrier cookie is consumed on the way through.
	cleared := false
	for _, c := range cbRec.Result().Cookies() {
		if c.Name == "oauth_return" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected oauth_return cookie cleared after callback")
	}
}

func TestCallback_SanitizesProfileFields(t *testing.T) {
	google := newFakeGoogle(t)
	google.info["name"] = "<script>alert(1)</script>Alice"
	google.info["picture"] = "javascript:alert(1)"
	h, fake, _ := newTestHandler(t, google)

	state, cookie := startLogin(t, h)
	runCallback(h, state, cookie)

	users := fake.Users()
	if len(users) != 1 {
		t.Fatalf("users in store: got %d, want 1", len(users))
	}
	if strings.Contains(users[0].Name, "<") {
		t.Errorf("stored name not sanitized: %q", users[0].Name)
	}
	if users[0].Picture != "" {
		t.Errorf("non-http picture URL should be dropped, got %q", users[0].Picture)
	}
}

func TestCallback_ProviderError(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest("GET", "/auth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/?error=google_denied" {
		t.Errorf("location: got %q", loc)
	}
}

func TestCallback_MissingState(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest("GET", "/auth/google/callback?code=fake-code", nil)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/?error=invalid_state" {
		t.Errorf("location: got %q", loc)
	}
}

func TestCallback_MismatchedState(t *testing.T) {
	google := newFakeGoogle(t)
	h, fake, _ := newTestHandler(t, google)

	_, cookie := startLogin(t, h)
	rec := runCallback(h, "forged-state", cookie)

	if loc := rec.Header().Get("Location"); loc != "/?error=invalid_state" {
		t.Errorf("location: got %q", loc)
	}
	if len(fake.Users()) != 0 {
		t.Error("no user may be created on state mismatch")
	}
}

func TestCallback_MissingCode(t *testing.T) {
	google := newFakeGoogle(t)
	h, _, _ := newTestHandler(t, google)

	state, cookie := startLogin(t, h)

	req := httptest.NewRequest("GET", "/auth/google/callback?state="+url.QueryEscape(state), nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/?error=invalid_code" {
		t.Errorf("location: got %q", loc)
	}
}
