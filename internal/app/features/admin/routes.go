// internal/app/features/admin/routes.go
package admin

import (
	"net/http"

	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the admin panel. Everything under the mount requires the
// configured admin account; an ordinary signed-in user gets a 403.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAdmin)
		pr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		})
		pr.Get("/users", h.ServeUsers)
	})

	return r
}
