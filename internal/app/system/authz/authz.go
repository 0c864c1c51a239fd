// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/inboxhub/internal/app/system/auth"
)

// UserCtx returns the current user's display name, email, surrogate id, and
// a found flag. ok=false means no authenticated principal is attached.
func UserCtx(r *http.Request) (name, email, userID string, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", "", false
	}
	return u.Name, u.Email, u.ID, true
}

// IsAdmin reports whether the current request's user is the configured
// admin. The comparison already happened in the session middleware; this
// just reads the flag.
func IsAdmin(r *http.Request) bool {
	u, ok := auth.CurrentUser(r)
	return ok && u.IsAdmin
}
