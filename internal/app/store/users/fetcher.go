package userstore

import (
	"context"

	"github.com/dalemusser/inboxhub/internal/app/system/auth"
	"github.com/dalemusser/inboxhub/internal/app/system/timeouts"
	"github.com/google/uuid"
)

// Fetcher implements auth.UserFetcher. The session cookie carries only the
// surrogate id; a fresh projection is loaded from the store on each request
// so deactivated accounts and profile changes take effect immediately.
type Fetcher struct {
	users *Store
}

// NewFetcher creates a UserFetcher backed by the given user store.
func NewFetcher(users *Store) *Fetcher {
	return &Fetcher{users: users}
}

// FetchUser retrieves a user by surrogate id and returns nil if the id is
// malformed, the user is missing or inactive, or any store error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	if _, err := uuid.Parse(userID); err != nil {
		// Malformed id in the session cookie; fail closed.
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.users.GetByID(ctx, userID)
	if err != nil {
		return nil
	}
	if !u.IsActive {
		return nil
	}

	return &auth.SessionUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Picture: u.Picture,
	}
}
