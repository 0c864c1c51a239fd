// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/dalemusser/inboxhub/internal/app/features/admin"
	authgooglefeature "github.com/dalemusser/inboxhub/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/inboxhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/inboxhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/inboxhub/internal/app/features/health"
	homefeature "github.com/dalemusser/inboxhub/internal/app/features/home"
	logoutfeature "github.com/dalemusser/inboxhub/internal/app/features/logout"
	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"github.com/dalemusser/inboxhub/internal/app/system/metrics"
	"github.com/dalemusser/inboxhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(deps.Records)

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. A deactivated account loses access on its next request.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(users))
	sessionMgr.SetAdminEmail(appCfg.AdminEmail)

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	collector := metrics.NewCollector()
	loginLimiter := ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow)

	r := chi.NewRouter()

	// Panic recovery so a bad handler yields a 500, not a dead connection.
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Records, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus metrics
	r.Handle("/metrics", collector.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	googleHandler := authgooglefeature.NewHandler(
		users, sessionMgr, collector,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		secure, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler, loginLimiter))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Signed-in pages
	dashboardHandler := dashboardfeature.NewHandler(users, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Admin panel
	adminHandler := adminfeature.NewHandler(users, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	return r, nil
}
