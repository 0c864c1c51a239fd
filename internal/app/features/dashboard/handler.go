// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/app/system/gates"
	"github.com/dalemusser/inboxhub/internal/app/system/timeouts"
	"github.com/dalemusser/inboxhub/internal/app/system/viewdata"
	"github.com/dalemusser/inboxhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users: users,
		Log:   logger,
	}
}

// ServeDashboard handles GET /dashboard.
//
// The route is behind RequireSignedIn, so a missing context user here means
// middleware mis-wiring; we bounce to the sign-in page rather than render
// a half-empty view.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	gate := gates.RequireAuth(w, r)
	if !gate.OK {
		return
	}

	// The session only carries the projection; pull the full record for the
	// account details panel. A fetch failure degrades to the projection
	// rather than erroring the page.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	record, err := h.Users.GetByID(ctx, gate.UserID)
	if err != nil {
		h.Log.Warn("dashboard: load user record", zap.String("user_id", gate.UserID), zap.Error(err))
		record = nil
	}

	data := struct {
		viewdata.BaseVM
		Welcome bool
		Record  *models.User
	}{
		BaseVM:  viewdata.NewBaseVM(r, "Dashboard", "/"),
		Welcome: r.URL.Query().Get("welcome") == "true",
		Record:  record,
	}

	templates.Render(w, r, "dashboard", data)
}
