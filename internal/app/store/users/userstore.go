package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	"github.com/dalemusser/inboxhub/internal/domain/models"
)

const table = "users"

// ErrNotFound is returned when a lookup matches no user row.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned when an insert loses against a uniqueness
// constraint in the store (google_id or email).
var ErrDuplicate = errors.New("a user with this identity already exists")

// Store performs user reads and writes against the hosted data API.
type Store struct {
	c *records.Client
}

func New(c *records.Client) *Store {
	return &Store{c: c}
}

// GetByID loads a user by surrogate id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, map[string]string{"id": "eq." + id})
}

// GetByGoogleID loads a user by the external provider's subject identifier.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.getOne(ctx, map[string]string{"google_id": "eq." + googleID})
}

func (s *Store) getOne(ctx context.Context, filters map[string]string) (*models.User, error) {
	var rows []models.User
	// Limit 2 so an impossible duplicate shows up instead of being masked.
	if err := s.c.Select(ctx, table, filters, 2, &rows); err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("userstore: filter %v matched %d rows, want at most 1", filters, len(rows))
	}
}

// List returns all user rows. The admin panel is the only caller; the
// deployment's user population is small enough that paging is not needed yet.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	if err := s.c.Select(ctx, table, nil, 0, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// WatchEnabled returns the users with Gmail push notifications turned on.
// Used by the gmailwatch diagnostic command.
func (s *Store) WatchEnabled(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	if err := s.c.Select(ctx, table, map[string]string{"gmail_watch_enabled": "eq.true"}, 0, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
