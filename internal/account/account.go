// Package account exposes the read-only identity this service authenticates.
// Account records are owned by an external account service; this package only
// looks them up by email or id.
package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned when no account matches the lookup key.
var ErrAccountNotFound = errors.New("account not found")

// Account is an immutable identity snapshot. The engine never mutates it;
// it is only the join key for refresh tokens and the source of token claims.
type Account struct {
	ID    uuid.UUID
	Email string
	Name  string
	Roles []string
}

// Store looks up accounts. Implementations must treat email matching as
// case-insensitive.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
}
