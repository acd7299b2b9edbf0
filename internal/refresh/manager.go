// Package refresh manages long-lived rotating refresh tokens against durable
// storage. Creation revokes all prior tokens for the account inside one
// transaction, so at most one valid token exists per account.
package refresh

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vaishali515/switchboard-auth/internal/database"
)

const tokenValueSize = 48

var (
	// ErrTokenNotFound is returned for unknown, revoked, or expired tokens.
	// The states are deliberately indistinguishable to callers.
	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrStoreUnavailable wraps database failures.
	ErrStoreUnavailable = errors.New("refresh store unavailable")
)

// Token is one row of the refresh-token chain for an account.
type Token struct {
	ID        uuid.UUID
	Value     string
	AccountID uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Manager creates, rotates, revokes, and validates refresh tokens.
type Manager struct {
	db  database.PgxIface
	ttl time.Duration
	log *zap.Logger
}

// NewManager creates a refresh-token [Manager] with the given token lifetime.
func NewManager(db database.PgxIface, ttl time.Duration, log *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{
		db:  db,
		ttl: ttl,
		log: log,
	}
}

// Create issues a fresh token for the account. All currently valid tokens for
// the account are revoked in the same transaction, so two concurrent creates
// cannot leave two live tokens.
func (m *Manager) Create(ctx context.Context, accountID uuid.UUID) (*Token, error) {
	value, err := newTokenValue()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &Token{
		ID:        uuid.New(),
		Value:     value,
		AccountID: accountID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE account_id = $1 AND is_revoked = FALSE`,
		accountID,
	); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, token, account_id, expiry_date, created_at, is_revoked)
		 VALUES ($1, $2, $3, $4, $5, FALSE)`,
		token.ID, token.Value, token.AccountID, token.ExpiresAt, token.CreatedAt,
	); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	m.log.Info("refresh token created", zap.String("account_id", accountID.String()))
	return token, nil
}

// FindValid returns the token only when it is non-revoked and unexpired.
func (m *Manager) FindValid(ctx context.Context, value string) (*Token, error) {
	var token Token

	err := m.db.QueryRow(ctx,
		`SELECT id, token, account_id, expiry_date, created_at, is_revoked
		 FROM refresh_tokens
		 WHERE token = $1 AND is_revoked = FALSE AND expiry_date > $2`,
		value, time.Now().UTC(),
	).Scan(&token.ID, &token.Value, &token.AccountID, &token.ExpiresAt, &token.CreatedAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &token, nil
}

// IsValid re-reads the row and re-checks revocation and expiry at the moment
// of use, guarding against a rotation that landed between lookup and use.
func (m *Manager) IsValid(ctx context.Context, token *Token) (bool, error) {
	var revoked bool
	var expiresAt time.Time

	err := m.db.QueryRow(ctx,
		`SELECT is_revoked, expiry_date FROM refresh_tokens WHERE id = $1`,
		token.ID,
	).Scan(&revoked, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return !revoked && expiresAt.After(time.Now().UTC()), nil
}

// Revoke marks the token revoked. Unknown values are a no-op so logout stays
// idempotent.
func (m *Manager) Revoke(ctx context.Context, value string) error {
	if _, err := m.db.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1`,
		value,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAllForAccount revokes every live token for the account.
func (m *Manager) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := m.db.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE account_id = $1 AND is_revoked = FALSE`,
		accountID,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry passed before now. Idempotent and
// safe to run on an interval.
func (m *Manager) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := m.db.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expiry_date < $1`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

// newTokenValue generates an opaque high-entropy value. 48 random bytes keep
// it unforgeable and content-free, unlike a structured token.
func newTokenValue() (string, error) {
	var raw [tokenValueSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
