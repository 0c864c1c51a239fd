// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for InboxHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: records_url, session_name, etc.
//   - Environment variables: INBOXHUB_RECORDS_URL, INBOXHUB_SESSION_NAME, etc.
//   - Command-line flags: --records_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "records_url", Default: "http://localhost:54321", Desc: "Base URL of the hosted record store data API"},
	{Name: "records_anon_key", Default: "", Desc: "Public API key for the record store"},
	{Name: "records_service_key", Default: "", Desc: "Service-role key for the record store (server-side only)"},
	{Name: "database_url", Default: "", Desc: "Direct Postgres DSN for migrations (optional)"},
	{Name: "auto_migrate", Default: false, Desc: "Apply pending schema migrations on startup"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "inboxhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "168h", Desc: "Session cookie lifetime (e.g., 24h, 168h)"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "admin_email", Default: "", Desc: "Email of the admin account (exact, case-sensitive match)"},

	// Base URL for OAuth callbacks
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Externally visible base URL"},

	// OAuth endpoint rate limiting
	{Name: "login_rate_limit", Default: 10, Desc: "OAuth requests allowed per window per client IP"},
	{Name: "login_rate_window", Default: "1m", Desc: "OAuth rate limit window (e.g., 1m, 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, INBOXHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "INBOXHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		RecordsURL:        appValues.String("records_url"),
		RecordsAnonKey:    appValues.String("records_anon_key"),
		RecordsServiceKey: appValues.String("records_service_key"),
		DatabaseURL:       appValues.String("database_url"),
		AutoMigrate:       appValues.Bool("auto_migrate"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:    appValues.Duration("session_ttl", 7*24*time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		AdminEmail: appValues.String("admin_email"),

		BaseURL: strings.TrimRight(appValues.String("base_url"), "/"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	u, err := url.Parse(appCfg.RecordsURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("records_url %q is not a valid http(s) URL", appCfg.RecordsURL)
	}

	if appCfg.RecordsAnonKey == "" && appCfg.RecordsServiceKey == "" {
		return fmt.Errorf("record store requires records_anon_key or records_service_key")
	}

	if coreCfg.Env == "prod" {
		if strings.HasPrefix(appCfg.SessionKey, "dev-only-") {
			return fmt.Errorf("session_key must be changed from the dev default in production")
		}
		if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
			return fmt.Errorf("google_client_id and google_client_secret are required in production")
		}
	}

	if appCfg.LoginRateLimit < 1 {
		return fmt.Errorf("login_rate_limit must be at least 1")
	}

	return nil
}
