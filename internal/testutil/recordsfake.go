package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	"github.com/dalemusser/inboxhub/internal/domain/models"
	"github.com/google/uuid"
)

// FakeStore emulates the slice of the hosted data API that the app talks
// to: a users table with predicate filters, inserts honoring the google_id
// unique constraint, patches, a schema_migrations table, and the exec_sql
// routine. It runs as an httptest.Server so the real records.Client is
// exercised end to end.
type FakeStore struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	users      []models.User
	migrations []map[string]any
	execSQL    []string

	// HasExecSQL controls whether the exec_sql routine exists; when false
	// the RPC answers 404 like a store that was never given the helper.
	HasExecSQL bool

	// StaleMigrationsCache makes the next read of schema_migrations answer
	// 42P01, emulating the data API's schema cache lagging behind a table
	// created moments ago. The flag clears after one read.
	StaleMigrationsCache bool
}

// NewFakeStore starts the fake and registers its shutdown with t.Cleanup.
func NewFakeStore(t *testing.T) *FakeStore {
	t.Helper()
	f := &FakeStore{t: t, HasExecSQL: true}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

// Client returns a records.Client pointed at the fake.
func (f *FakeStore) Client() *records.Client {
	return records.New(records.Config{
		BaseURL: f.srv.URL,
		AnonKey: "test-anon-key",
		Timeout: 5 * time.Second,
	})
}

// URL returns the fake's base URL.
func (f *FakeStore) URL() string { return f.srv.URL }

// Seed inserts a user row directly, filling id and created_at when unset.
// IsActive is taken as given so tests can seed deactivated accounts.
func (f *FakeStore) Seed(u models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	f.users = append(f.users, u)
	return u
}

// Users returns a copy of the current users table.
func (f *FakeStore) Users() []models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.users...)
}

// ExecutedSQL returns the statements received by the exec_sql routine.
func (f *FakeStore) ExecutedSQL() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.execSQL...)
}

func (f *FakeStore) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/rest/v1")

	switch {
	case path == "/" || path == "":
		w.WriteHeader(http.StatusOK)

	case strings.HasPrefix(path, "/rpc/"):
		f.handleRPC(w, r, strings.TrimPrefix(path, "/rpc/"))

	case path == "/users":
		f.handleUsers(w, r)

	case path == "/schema_migrations":
		f.handleMigrations(w, r)

	default:
		writeAPIError(w, http.StatusNotFound, "42P01", "relation does not exist")
	}
}

func (f *FakeStore) handleRPC(w http.ResponseWriter, r *http.Request, fn string) {
	if fn != "exec_sql" || !f.HasExecSQL {
		writeAPIError(w, http.StatusNotFound, "PGRST202", "could not find function")
		return
	}

	var args struct {
		SQL string `json:"sql"`
	}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		writeAPIError(w, http.StatusBadRequest, "", "bad exec_sql body")
		return
	}

	f.mu.Lock()
	f.execSQL = append(f.execSQL, args.SQL)
	f.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeStore) handleUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		rows := f.filterUsersLocked(r)
		writeJSON(w, http.StatusOK, rows)

	case http.MethodPost:
		var row models.User
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			writeAPIError(w, http.StatusBadRequest, "", "bad insert body")
			return
		}
		for _, u := range f.users {
			if u.GoogleID == row.GoogleID || u.Email == row.Email {
				writeAPIError(w, http.StatusConflict, "23505", "duplicate key value violates unique constraint")
				return
			}
		}
		row.ID = uuid.NewString()
		row.CreatedAt = time.Now().UTC()
		row.IsActive = true
		f.users = append(f.users, row)

		if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
			writeJSON(w, http.StatusCreated, []models.User{row})
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeAPIError(w, http.StatusBadRequest, "", "bad patch body")
			return
		}
		for i := range f.users {
			if matchUser(f.users[i], r.URL.Query()) {
				applyPatch(&f.users[i], patch)
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeStore) handleMigrations(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if f.StaleMigrationsCache {
			f.StaleMigrationsCache = false
			writeAPIError(w, http.StatusNotFound, "42P01", "relation does not exist")
			return
		}
		writeJSON(w, http.StatusOK, f.migrations)
	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			writeAPIError(w, http.StatusBadRequest, "", "bad insert body")
			return
		}
		f.migrations = append(f.migrations, row)
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeStore) filterUsersLocked(r *http.Request) []models.User {
	rows := make([]models.User, 0)
	for _, u := range f.users {
		if matchUser(u, r.URL.Query()) {
			rows = append(rows, u)
		}
	}
	if lim := r.URL.Query().Get("limit"); lim != "" {
		if n, err := strconv.Atoi(lim); err == nil && n < len(rows) {
			rows = rows[:n]
		}
	}
	return rows
}

// matchUser applies "col=eq.value" predicates from the query string.
func matchUser(u models.User, q map[string][]string) bool {
	for col, vals := range q {
		if col == "select" || col == "limit" {
			continue
		}
		if len(vals) == 0 {
			continue
		}
		want, ok := strings.CutPrefix(vals[0], "eq.")
		if !ok {
			continue
		}
		var got string
		switch col {
		case "id":
			got = u.ID
		case "google_id":
			got = u.GoogleID
		case "email":
			got = u.Email
		case "is_active":
			got = strconv.FormatBool(u.IsActive)
		case "gmail_watch_enabled":
			got = strconv.FormatBool(u.GmailWatchEnabled)
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

func applyPatch(u *models.User, patch map[string]any) {
	for col, v := range patch {
		switch col {
		case "last_login":
			if s, ok := v.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					u.LastLogin = &ts
				}
			}
		case "name":
			if s, ok := v.(string); ok {
				u.Name = s
			}
		case "picture":
			if s, ok := v.(string); ok {
				u.Picture = s
			}
		case "is_active":
			if b, ok := v.(bool); ok {
				u.IsActive = b
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
