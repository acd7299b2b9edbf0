package auth

import "errors"

// The orchestrator maps component sentinels onto this closed set. Messages
// are user-safe; internal detail stays in the logs.
var (
	// ErrUserNotFound is returned when no account exists for the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrOTPNotFound is returned when no live OTP record exists.
	ErrOTPNotFound = errors.New("otp expired or not found")
	// ErrOTPInvalid is returned for a wrong code with budget remaining.
	ErrOTPInvalid = errors.New("invalid otp")
	// ErrOTPAttemptsExceeded is returned once the attempt budget is spent.
	ErrOTPAttemptsExceeded = errors.New("maximum attempts exceeded")
	// ErrCooldownActive is returned while the per-email cooldown lives.
	ErrCooldownActive = errors.New("please wait before requesting a new otp")
	// ErrRefreshInvalid is returned for unknown, revoked, expired, or stale
	// refresh tokens. The states are indistinguishable on purpose.
	ErrRefreshInvalid = errors.New("invalid refresh token")
)
