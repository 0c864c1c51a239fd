// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is where you put everything specific to YOUR application.
type AppConfig struct {
	// Hosted record store (PostgREST-style data API)
	RecordsURL        string // Base URL of the data API (e.g., https://xyz.supabase.co)
	RecordsAnonKey    string // Public API key
	RecordsServiceKey string // Service-role key (server-side only, bypasses row policies)

	// Direct Postgres DSN for running migrations (optional; the data API
	// RPC channel is used when this is blank)
	DatabaseURL string

	// AutoMigrate applies pending schema migrations on startup.
	AutoMigrate bool

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: inboxhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // How long a session cookie stays valid

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// AdminEmail is the single account allowed into the admin panel.
	// Comparison is exact and case-sensitive.
	AdminEmail string

	// Base URL for OAuth callbacks (e.g., "https://inboxhub.example.com")
	BaseURL string

	// Rate limiting for the OAuth endpoints
	LoginRateLimit  int           // Requests allowed per window per client IP
	LoginRateWindow time.Duration // Window size
}
