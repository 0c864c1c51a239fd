package home

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"github.com/dalemusser/inboxhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the sign-in page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		Log: logger,
	}
}

// errorMessages maps callback error codes to user-facing copy. Unknown
// codes fall back to a generic message so the query string can't inject
// arbitrary text.
var errorMessages = map[string]string{
	"google_denied":         "Google sign-in was cancelled or denied.",
	"google_not_configured": "Google sign-in is not configured on this server.",
	"invalid_state":         "Your sign-in session expired. Please try again.",
	"invalid_code":          "Google sign-in did not complete. Please try again.",
	"token_exchange":        "We couldn't verify your sign-in with Google. Please try again.",
	"user_info":             "We couldn't read your Google profile. Please try again.",
	"store":                 "Something went wrong saving your account. Please try again.",
	"session":               "We couldn't start your session. Please try again.",
	"internal":              "Something went wrong. Please try again.",
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – sign-in landing                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	// Signed-in visitors have no business on the sign-in page; honor the
	// gate's return target when one rode along.
	if _, ok := auth.CurrentUser(r); ok {
		dest := urlutil.SafeReturn(r.URL.Query().Get("return"), "", "/dashboard")
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}

	var errMsg string
	if code := r.URL.Query().Get("error"); code != "" {
		msg, known := errorMessages[code]
		if !known {
			msg = errorMessages["internal"]
		}
		errMsg = msg
	}

	// Thread the return target into the sign-in link so the OAuth flow can
	// send the user back where the gate stopped them.
	signInURL := "/auth/google"
	if ret := urlutil.SafeReturn(r.URL.Query().Get("return"), "", ""); ret != "" {
		signInURL += "?return=" + url.QueryEscape(ret)
	}

	data := struct {
		viewdata.BaseVM
		ErrorMessage string
		SignInURL    string
	}{
		BaseVM:       viewdata.NewBaseVM(r, "Sign in", "/"),
		ErrorMessage: errMsg,
		SignInURL:    signInURL,
	}

	templates.Render(w, r, "home", data)
}
