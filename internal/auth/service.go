// Package auth orchestrates the two session protocols: OTP-gated issuance of
// a token pair, and refresh-token-gated renewal with rotation.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaishali515/switchboard-auth/internal/account"
	"github.com/vaishali515/switchboard-auth/internal/notify"
	"github.com/vaishali515/switchboard-auth/internal/otp"
	"github.com/vaishali515/switchboard-auth/internal/refresh"
	"github.com/vaishali515/switchboard-auth/internal/token"
)

// TokenPair is the response shape of both token-issuing protocols.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Service is the session orchestrator surface the transport layer calls.
type Service interface {
	RequestOTP(ctx context.Context, email string) error
	ValidateOTP(ctx context.Context, email, code string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// RefreshManager is the slice of the refresh-token manager the orchestrator
// depends on.
type RefreshManager interface {
	Create(ctx context.Context, accountID uuid.UUID) (*refresh.Token, error)
	FindValid(ctx context.Context, value string) (*refresh.Token, error)
	IsValid(ctx context.Context, t *refresh.Token) (bool, error)
	Revoke(ctx context.Context, value string) error
}

type service struct {
	accounts account.Store
	otp      *otp.Engine
	issuer   *token.Issuer
	refresh  RefreshManager
	notifier notify.Notifier
	log      *zap.Logger
}

// NewService wires the orchestrator.
func NewService(
	accounts account.Store,
	otpEngine *otp.Engine,
	issuer *token.Issuer,
	refreshManager RefreshManager,
	notifier notify.Notifier,
	log *zap.Logger,
) Service {
	return &service{
		accounts: accounts,
		otp:      otpEngine,
		issuer:   issuer,
		refresh:  refreshManager,
		notifier: notifier,
		log:      log,
	}
}

// RequestOTP issues a code for a known account and hands it to the
// notification collaborator. The plaintext never travels back to the caller.
func (s *service) RequestOTP(ctx context.Context, email string) error {
	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			s.log.Warn("otp requested for unknown email", zap.String("email", email))
			return ErrUserNotFound
		}
		return err
	}

	code, err := s.otp.Request(ctx, acct.Email)
	if err != nil {
		if errors.Is(err, otp.ErrCooldownActive) {
			return ErrCooldownActive
		}
		return err
	}

	// Fire and forget: the notifier owns delivery and its failures.
	s.notifier.OTPIssued(ctx, acct.Email, code)
	return nil
}

// ValidateOTP consumes a submitted code and, on success, mints the token
// pair.
func (s *service) ValidateOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	if err := s.otp.Validate(ctx, email, code); err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound):
			return nil, ErrOTPNotFound
		case errors.Is(err, otp.ErrAttemptsExceeded):
			return nil, ErrOTPAttemptsExceeded
		case errors.Is(err, otp.ErrCodeMismatch):
			return nil, ErrOTPInvalid
		default:
			return nil, err
		}
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			s.log.Error("account vanished after otp validation", zap.String("email", email))
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.issuePair(ctx, acct)
}

// Refresh validates and rotates a refresh token, re-issuing the access token
// without re-running OTP. Creating the replacement revokes the presented
// token as part of the same rotation.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	found, err := s.refresh.FindValid(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrTokenNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	// Re-check at the moment of use: a concurrent rotation may have revoked
	// the row after the lookup.
	ok, err := s.refresh.IsValid(ctx, found)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn("refresh token went stale between lookup and use",
			zap.String("account_id", found.AccountID.String()))
		return nil, ErrRefreshInvalid
	}

	acct, err := s.accounts.FindByID(ctx, found.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	return s.issuePair(ctx, acct)
}

// Logout revokes the presented refresh token. Unknown tokens succeed
// silently.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}

func (s *service) issuePair(ctx context.Context, acct *account.Account) (*TokenPair, error) {
	access, expiresIn, err := s.issuer.Issue(*acct)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.refresh.Create(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("token pair issued",
		zap.String("account_id", acct.ID.String()),
		zap.Int64("expires_in", expiresIn))

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken.Value,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}, nil
}
