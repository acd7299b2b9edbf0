// Package otp generates and validates one-time passcodes bound to an email
// identity, with cooldown and bounded-attempt policy enforced against Redis.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// codeSpan covers the 6-digit range [100000, 999999].
	codeSpan = 900000
	codeBase = 100000
)

// Config holds OTP policy knobs.
type Config struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// Engine issues and validates OTPs against a [Store].
type Engine struct {
	store  *Store
	config Config
	log    *zap.Logger
}

// NewEngine creates an OTP [Engine]. Zero config fields fall back to the
// documented defaults (5m TTL, 60s cooldown, 3 attempts).
func NewEngine(store *Store, cfg Config, log *zap.Logger) *Engine {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Engine{
		store:  store,
		config: cfg,
		log:    log,
	}
}

// Request issues a fresh code for the email and returns the plaintext for
// out-of-band delivery. Any prior record is replaced. Fails with
// [ErrCooldownActive] while the cooldown marker lives; claiming the marker
// and checking it is one atomic step.
func (e *Engine) Request(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	ok, err := e.store.ClaimCooldown(ctx, email, e.config.Cooldown)
	if err != nil {
		return "", err
	}
	if !ok {
		e.log.Warn("otp request rejected by cooldown", zap.String("email", email))
		return "", ErrCooldownActive
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	if err := e.store.Replace(ctx, email, HashCode(code), e.config.TTL); err != nil {
		return "", err
	}

	e.log.Info("otp issued", zap.String("email", email), zap.Duration("ttl", e.config.TTL))
	return code, nil
}

// Validate checks a submitted code. Success consumes the record; a mismatch
// burns one attempt and the record survives until the budget is spent.
func (e *Engine) Validate(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	provided := HashCode(code)

	stored, err := e.store.Consume(ctx, email, provided, e.config.MaxAttempts)
	if err != nil {
		e.log.Warn("otp validation failed", zap.String("email", email), zap.Error(err))
		return err
	}

	// The script already compared; re-check in Go because Lua string
	// equality is not constant-time.
	if subtle.ConstantTimeCompare(stored, provided[:]) != 1 {
		return ErrCodeMismatch
	}

	e.log.Info("otp validated", zap.String("email", email))
	return nil
}

// HashCode digests a code with SHA-256. A fast digest is sufficient here:
// the input space is 900000 values, records live minutes, and validation is
// attempt-limited, so a password-grade cost function buys nothing.
func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// generateCode draws a 6-digit code uniformly from [100000, 999999] using a
// cryptographically secure source.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeBase), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
