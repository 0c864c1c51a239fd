// internal/domain/models/user.go
package models

import "time"

// User mirrors a row in the hosted store's users table.
//
// The store generates ID and CreatedAt on insert; GoogleID and Email carry
// unique constraints there. The Gmail token/watch columns were added in a
// later schema revision and are only populated for accounts that granted
// Gmail access.
type User struct {
	ID        string     `json:"id,omitempty"`
	GoogleID  string     `json:"google_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Picture   string     `json:"picture"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	IsActive  bool       `json:"is_active"`

	AccessToken          string     `json:"access_token,omitempty"`
	RefreshToken         string     `json:"refresh_token,omitempty"`
	TokenExpiry          *time.Time `json:"token_expiry,omitempty"`
	GmailWatchEnabled    bool       `json:"gmail_watch_enabled,omitempty"`
	GmailWatchExpiration int64      `json:"gmail_watch_expiration,omitempty"`
	GmailHistoryID       string     `json:"gmail_history_id,omitempty"`

	// IsNew is true only on the authentication event that created the row.
	// It is never written to the store.
	IsNew bool `json:"-"`
}
