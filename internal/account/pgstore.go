package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vaishali515/switchboard-auth/internal/database"
)

// PostgresStore reads accounts from the accounts table. Lookup only; account
// lifecycle is owned elsewhere.
type PostgresStore struct {
	db database.PgxIface
}

// NewPostgresStore creates a [PostgresStore].
func NewPostgresStore(db database.PgxIface) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByEmail looks up an account by email, case-insensitively.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		`SELECT id, email, name, roles FROM accounts WHERE lower(email) = lower($1)`,
		email,
	))
}

// FindByID looks up an account by id.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		`SELECT id, email, name, roles FROM accounts WHERE id = $1`,
		id,
	))
}

func (s *PostgresStore) scanOne(row pgx.Row) (*Account, error) {
	var acct Account
	if err := row.Scan(&acct.ID, &acct.Email, &acct.Name, &acct.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	return &acct, nil
}
