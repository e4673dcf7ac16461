package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"patisserie/internal/auth"
	"patisserie/internal/common"
	"patisserie/internal/models"
	"patisserie/internal/repositories"
	"patisserie/internal/utils"
)

const bcryptCost = 8

// NormalizeEmail applies the one e-mail policy everywhere: trimmed and
// lowercased, so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserService is the credential store's business face: registration, login,
// profile lookup.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userService struct {
	userRepo   repositories.UserRepository
	otpService OTPService
	issuer     *auth.TokenIssuer
}

func NewUserService(userRepo repositories.UserRepository, otpService OTPService, issuer *auth.TokenIssuer) UserService {
	return &userService{userRepo: userRepo, otpService: otpService, issuer: issuer}
}

// Register creates an unverified account and mails out a registration OTP.
// A failed send leaves both the account and the issued code in place.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	log.Debug().Str("email", req.Email).Msg("Attempting to register user")
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email, name, and password are required", common.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, common.ErrInternal
	}

	user := &models.User{
		Email:      NormalizeEmail(req.Email),
		Name:       req.Name,
		Password:   string(hashed),
		IsVerified: false,
		IsAdmin:    false,
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			log.Warn().Str("email", user.Email).Msg("Email already exists during registration")
			return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
		}
		return nil, err
	}
	utils.NewUsersTotal.Inc()
	log.Info().Str("user_id", created.ID.Hex()).Str("email", created.Email).Msg("User registered successfully")

	if _, err := s.otpService.IssueAndSend(ctx, created.Email, models.PurposeRegistration); err != nil {
		// The account exists either way; the client can re-request a code.
		log.Error().Err(err).Str("email", created.Email).Msg("Failed to deliver registration OTP")
	}

	created.Password = ""
	return created, nil
}

// Login checks credentials and mints a bearer token. Unknown e-mail and
// wrong password are reported as distinct errors.
func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	log.Debug().Str("email", email).Msg("Attempting user login")

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			utils.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			log.Warn().Str("email", email).Msg("Login attempt for unknown e-mail")
			return "", common.ErrNotFound
		}
		return "", common.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		utils.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", email).Msg("Password mismatch during login attempt")
		return "", common.ErrUnauthorized
	}

	token, err := s.issuer.Mint(user.Email, user.Role())
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Could not mint token for user")
		return "", common.ErrInternal
	}

	utils.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in successfully")
	return token, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}
