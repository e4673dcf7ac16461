package repositories

import (
	"context"

	"patisserie/internal/models"
)

// OTPLedger issues and validates one-time codes keyed by e-mail. Two
// implementations exist, one over the MongoDB otps collection and one over a
// Redis hash with store-enforced TTL. A deployment runs exactly one of them,
// selected by configuration.
//
// Issue fails with common.ErrOTPConflict while an active record (unexpired
// and still under the attempt limit) exists for the e-mail. Verify walks the
// record's state machine: common.ErrNotFound, common.ErrAlreadyVerified,
// common.ErrOTPExpired, common.TooManyAttemptsError, common.ErrInvalidCode.
// Purpose gating is the caller's job; the ledger stores the purpose but does
// not interpret it.
type OTPLedger interface {
	Issue(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error)
	Verify(ctx context.Context, email, code string) (*models.OTP, error)
}
