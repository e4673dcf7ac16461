package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"patisserie/internal/auth"
	"patisserie/internal/common"
	"patisserie/internal/models"
	"patisserie/internal/repositories"
	"patisserie/internal/utils"
)

// OTPService drives the issuance and verification workflows around the
// ledger. Purpose gating lives here, per the contract that the ledger itself
// stays purpose-agnostic.
type OTPService interface {
	RequestOTP(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error)
	IssueAndSend(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error)
	VerifyEmail(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type otpService struct {
	userRepo     repositories.UserRepository
	ledger       repositories.OTPLedger
	emailService EmailService
	issuer       *auth.TokenIssuer
}

func NewOTPService(userRepo repositories.UserRepository, ledger repositories.OTPLedger, emailService EmailService, issuer *auth.TokenIssuer) OTPService {
	return &otpService{userRepo: userRepo, ledger: ledger, emailService: emailService, issuer: issuer}
}

// RequestOTP gates issuance on the user's state: a verified user cannot
// request a registration code, and a password reset needs an existing,
// verified account.
func (s *otpService) RequestOTP(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInternal
	}

	switch purpose {
	case models.PurposeRegistration:
		if user != nil && user.IsVerified {
			return nil, fmt.Errorf("%w: email already registered and verified", common.ErrConflict)
		}
	case models.PurposePasswordReset:
		if user == nil {
			return nil, common.ErrNotFound
		}
		if !user.IsVerified {
			return nil, common.ErrNotVerified
		}
	}

	return s.IssueAndSend(ctx, email, purpose)
}

// IssueAndSend issues a fresh code and mails it out. A delivery failure is
// reported but does not undo the issuance.
func (s *otpService) IssueAndSend(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error) {
	issue, err := s.ledger.Issue(ctx, email, purpose)
	if err != nil {
		return nil, err
	}
	utils.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
	log.Info().Str("email", email).Str("purpose", string(purpose)).Msg("OTP issued")

	if err := s.emailService.SendOTPEmail(email, issue.Code, time.Until(issue.ExpiresAt)); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to send OTP email")
		return issue, common.ErrExternalService
	}
	return issue, nil
}

// VerifyEmail validates the code, flips the user to verified and mints a
// bearer token.
func (s *otpService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	email = NormalizeEmail(email)

	if _, err := s.ledger.Verify(ctx, email, code); err != nil {
		observeOTPVerify(err)
		return "", err
	}
	utils.OTPVerifiedTotal.WithLabelValues("success").Inc()

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.MarkVerified(ctx, email); err != nil {
		return "", err
	}
	log.Info().Str("email", email).Msg("User e-mail verified")

	token, err := s.issuer.Mint(email, user.Role())
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Could not mint token after verification")
		return "", common.ErrInternal
	}
	return token, nil
}

// ResetPassword validates the code and swaps in the new password hash.
func (s *otpService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)

	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", common.ErrInvalidInput)
	}

	if _, err := s.ledger.Verify(ctx, email, code); err != nil {
		observeOTPVerify(err)
		return err
	}
	utils.OTPVerifiedTotal.WithLabelValues("success").Inc()

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash new password")
		return common.ErrInternal
	}

	if err := s.userRepo.UpdatePassword(ctx, email, string(hashed)); err != nil {
		return err
	}
	log.Info().Str("email", email).Msg("Password reset completed")
	return nil
}

func observeOTPVerify(err error) {
	switch {
	case errors.Is(err, common.ErrOTPExpired):
		utils.OTPVerifiedTotal.WithLabelValues("expired").Inc()
	case errors.Is(err, common.ErrTooManyAttempts):
		utils.OTPVerifiedTotal.WithLabelValues("locked").Inc()
	default:
		utils.OTPVerifiedTotal.WithLabelValues("invalid").Inc()
	}
}
