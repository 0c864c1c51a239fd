// internal/app/features/authgoogle/routes.go
package authgoogle

import (
	"github.com/dalemusser/inboxhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for Google OAuth endpoints.
// These routes are public (no authentication required) but rate limited
// per client IP to keep abusive clients off the upstream OAuth endpoints.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Use(limiter.Middleware)

	// GET /auth/google - Initiate Google OAuth flow
	r.Get("/", h.ServeLogin)

	// GET /auth/google/callback - Handle Google OAuth callback
	r.Get("/callback", h.ServeCallback)

	return r
}
