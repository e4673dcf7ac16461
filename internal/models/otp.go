package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPPurpose is the closed set of flows an OTP can authorize.
type OTPPurpose string

const (
	PurposeRegistration  OTPPurpose = "registration"
	PurposePasswordReset OTPPurpose = "password_reset"
)

// ParseOTPPurpose validates a raw purpose string at the request boundary.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch OTPPurpose(s) {
	case PurposeRegistration, PurposePasswordReset:
		return OTPPurpose(s), nil
	default:
		return "", fmt.Errorf("unknown OTP purpose %q", s)
	}
}

// OTP is a one-time credential. At most one record exists per e-mail; the
// attempt counter saturates at the configured maximum, after which the record
// stays locked until its natural expiry.
type OTP struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email      string             `json:"email" bson:"email"`
	Code       string             `json:"-" bson:"code"`
	Purpose    OTPPurpose         `json:"purpose" bson:"purpose"`
	Attempts   int                `json:"attempts" bson:"attempts"`
	IsVerified bool               `json:"is_verified" bson:"is_verified"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at" bson:"expires_at"`
}

// IsExpired reports whether the record is past its validity window.
func (o *OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsLocked reports whether the attempt counter has saturated.
func (o *OTP) IsLocked(maxAttempts int) bool {
	return o.Attempts >= maxAttempts
}

// IsActive reports whether a new issuance for the same e-mail must be
// rejected: the record is unexpired and still accepts attempts.
func (o *OTP) IsActive(now time.Time, maxAttempts int) bool {
	return !o.IsExpired(now) && !o.IsLocked(maxAttempts)
}

// OTPIssue is what the ledger hands back on issuance: the code for delivery
// and the expiry for the client-facing countdown.
type OTPIssue struct {
	Code      string
	ExpiresAt time.Time
}
