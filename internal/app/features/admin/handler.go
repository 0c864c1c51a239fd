// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/inboxhub/internal/app/features/errors"
	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/app/system/authz"
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

// ServeUsers handles GET /admin/users: the full user listing plus summary
// statistics. The admin gate runs in the router, not here.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, email, _, ok := authz.UserCtx(r); ok {
		h.Log.Info("admin: user listing viewed", zap.String("admin", email))
	}

	users, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("admin: list users", zap.Error(err))
		errorsfeature.RenderServerError(w, r)
		return
	}

	data := struct {
		viewdata.BaseVM
		Users []models.User
		Stats Stats
	}{
		BaseVM: viewdata.NewBaseVM(r, "Users", "/dashboard"),
		Users:  users,
		Stats:  ComputeStats(users, time.Now()),
	}

	templates.Render(w, r, "admin_users", data)
}
