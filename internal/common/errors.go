package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict indicates an attempt to create a resource that already exists.
	ErrConflict = errors.New("resource already exists")

	// ErrNotFound indicates a missing user, OTP record, pastry or order.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates bad credentials or a bad token signature.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput indicates a request that fails domain validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotVerified indicates an operation that requires a verified e-mail.
	ErrNotVerified = errors.New("email not verified")

	// ErrExternalService indicates a downstream failure, e.g. e-mail delivery.
	ErrExternalService = errors.New("external service failure")

	// ErrInternal hides storage-level failures from clients.
	ErrInternal = errors.New("internal error")
)

// OTP lifecycle errors.
var (
	ErrOTPConflict     = errors.New("an active OTP already exists")
	ErrOTPExpired      = errors.New("OTP has expired")
	ErrInvalidCode     = errors.New("invalid OTP code")
	ErrAlreadyVerified = errors.New("OTP already verified")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Token errors.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// TooManyAttemptsError reports a locked OTP record together with the time
// remaining until its natural expiry unlocks the e-mail address again.
// It matches ErrTooManyAttempts under errors.Is.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *TooManyAttemptsError) Is(target error) bool {
	return target == ErrTooManyAttempts
}
