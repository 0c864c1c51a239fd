// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"github.com/dalemusser/inboxhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/inboxhub/internal/app/system/metrics"
	"github.com/dalemusser/inboxhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie  = "oauth_state"
	returnCookie = "oauth_return"
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Metrics    *metrics.Collector

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://inboxhub.example.com/auth/google/callback"
	SecureCookie bool

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler. baseURL is the externally
// visible origin; the callback path is appended to it.
func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	collector *metrics.Collector,
	clientID, clientSecret, baseURL string,
	secureCookie bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		Log:          logger,
		SessionMgr:   sessionMgr,
		Metrics:      collector,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		SecureCookie: secureCookie,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	endpoint := h.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}

	// One-time CSRF token, bound to this browser for the round trip to Google.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	// Carry the post-login destination across the round trip so the gate's
	// return target survives the detour through Google.
	if ret := urlutil.SafeReturn(r.URL.Query().Get("return"), "", ""); ret != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     returnCookie,
			Value:    ret,
			Path:     "/auth/google",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   h.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow", zap.String("redirect_url", url))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the verified profile, upserts the local user,    |
| and establishes the session.                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.failLogin(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" || !h.validState(w, r, state) {
		h.Log.Warn("missing or mismatched OAuth state parameter")
		h.failLogin(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.failLogin(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.failLogin(w, r, "token_exchange")
		return
	}

	googleUser, err := h.fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.failLogin(w, r, "user_info")
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	upsertCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	user, isNew, err := h.Users.UpsertGoogleUser(upsertCtx, userstore.GoogleIdentity{
		GoogleID: googleUser.ID,
		Email:    googleUser.Email,
		Name:     htmlsanitize.Clean(googleUser.Name),
		Picture:  htmlsanitize.CleanURL(googleUser.Picture),
	})
	if err != nil {
		// Includes the loser of a concurrent first-login race: no session,
		// clean redirect, nothing retried.
		if errors.Is(err, userstore.ErrDuplicate) {
			h.Log.Warn("login lost identity race", zap.String("google_id", googleUser.ID), zap.Error(err))
		} else {
			h.Log.Error("user upsert failed", zap.String("google_id", googleUser.ID), zap.Error(err))
		}
		h.failLogin(w, r, "store")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user.ID); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", user.ID))
		h.failLogin(w, r, "session")
		return
	}

	h.Metrics.RecordLogin("success")
	if isNew {
		h.Metrics.RecordRegistration()
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Bool("is_new", isNew))

	// New accounts always land on the dashboard for the welcome banner;
	// returning users resume wherever the auth gate interrupted them.
	dest := h.returnTarget(w, r)
	if isNew {
		dest = "/dashboard?welcome=true"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// returnTarget consumes the oauth_return cookie and yields the post-login
// destination, defaulting to the dashboard.
func (h *Handler) returnTarget(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(returnCookie)

	http.SetCookie(w, &http.Cookie{
		Name:     returnCookie,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil {
		return "/dashboard"
	}
	return urlutil.SafeReturn(c.Value, "", "/dashboard")
}

// validState compares the callback state with the cookie set at flow start
// and clears the cookie either way (one-time use).
func (h *Handler) validState(w http.ResponseWriter, r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookie)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return err == nil && c.Value == state
}

// failLogin records the failure and sends the browser back to sign-in.
func (h *Handler) failLogin(w http.ResponseWriter, r *http.Request, code string) {
	h.Metrics.RecordLogin(code)
	http.Redirect(w, r, "/?error="+code, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Google userinfo                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents the verified profile returned by Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	url := h.UserInfoURL
	if url == "" {
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
