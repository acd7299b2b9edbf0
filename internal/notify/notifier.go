// Package notify is the outbound notification collaborator. The engine calls
// it fire-and-forget: delivery success or failure never affects the outcome
// of the request that triggered it.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers messages out of band. Implementations log their own
// failures; no error is surfaced to the caller.
type Notifier interface {
	// OTPIssued delivers a freshly issued code to the address. This is the
	// only path the plaintext code travels after issuance.
	OTPIssued(ctx context.Context, email, code string)
}

// LogNotifier is the development stand-in for a real delivery channel. It
// writes the code to the debug log instead of sending it.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a [LogNotifier].
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// OTPIssued logs the delivery. The plaintext appears at debug level only.
func (n *LogNotifier) OTPIssued(_ context.Context, email, code string) {
	n.log.Info("otp notification dispatched", zap.String("email", email))
	n.log.Debug("otp code for local delivery", zap.String("email", email), zap.String("code", code))
}
