// internal/app/store/users/upsert.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	"github.com/dalemusser/inboxhub/internal/domain/models"
)

// GoogleIdentity is the verified profile data handed back by Google after a
// successful OAuth exchange.
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// UpsertGoogleUser finds or creates the local user for a verified Google
// identity and stamps last_login. The returned isNew is true only when this
// call created the row; it is mirrored onto User.IsNew and never persisted.
//
// Lookup is keyed solely by google_id. On repeat logins only last_login
// changes: profile drift at the provider (renamed account, new avatar) is
// deliberately not reconciled into the existing row.
//
// Any store failure aborts the whole login. Two first logins racing the
// find/insert window are not serialized here; the store's unique constraint
// on google_id decides, and the loser gets ErrDuplicate rather than a
// second row.
func (s *Store) UpsertGoogleUser(ctx context.Context, ident GoogleIdentity) (*models.User, bool, error) {
	if ident.GoogleID == "" {
		return nil, false, fmt.Errorf("userstore: upsert: empty google id")
	}

	existing, err := s.GetByGoogleID(ctx, ident.GoogleID)
	switch {
	case err == nil:
		now := time.Now().UTC()
		patch := map[string]any{"last_login": now}
		if err := s.c.Update(ctx, table, map[string]string{"id": "eq." + existing.ID}, patch); err != nil {
			return nil, false, fmt.Errorf("userstore: stamp last_login for %s: %w", existing.ID, err)
		}
		existing.LastLogin = &now
		existing.IsNew = false
		return existing, false, nil

	case errors.Is(err, ErrNotFound):
		row := map[string]any{
			"google_id": ident.GoogleID,
			"email":     ident.Email,
			"name":      ident.Name,
			"picture":   ident.Picture,
		}
		var inserted []models.User
		if err := s.c.Insert(ctx, table, row, &inserted); err != nil {
			if records.IsConflict(err) {
				// Lost a first-login race (or a duplicate email); the row the
				// winner created is authoritative and this attempt fails clean.
				return nil, false, fmt.Errorf("userstore: insert %s: %w", ident.GoogleID, ErrDuplicate)
			}
			return nil, false, fmt.Errorf("userstore: insert %s: %w", ident.GoogleID, err)
		}
		if len(inserted) != 1 {
			return nil, false, fmt.Errorf("userstore: insert %s: store returned %d rows, want 1", ident.GoogleID, len(inserted))
		}
		u := inserted[0]
		u.IsNew = true
		return &u, true, nil

	default:
		return nil, false, fmt.Errorf("userstore: lookup %s: %w", ident.GoogleID, err)
	}
}
