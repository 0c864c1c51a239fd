// Package gates provides handler-level authorization checks for handlers
// that are not behind route-level middleware, or that need a different
// requirement than their route group.
//
// Route middleware (auth.SessionManager.RequireSignedIn / RequireAdmin)
// covers whole route groups; a gate covers one handler. Handlers behind
// admin middleware should use authz.UserCtx instead of re-checking.
package gates

import (
	"net/http"

	"github.com/dalemusser/inboxhub/internal/app/system/authz"
)

// Result carries the outcome of a gate check plus the user context the
// handler usually needs next.
type Result struct {
	Name   string
	Email  string
	UserID string
	OK     bool
}

// RequireAuth ensures a user is authenticated. On failure it redirects to
// the sign-in page and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	name, email, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return Result{OK: false}
	}
	return Result{Name: name, Email: email, UserID: uid, OK: true}
}

