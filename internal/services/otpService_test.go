package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"patisserie/internal/auth"
	"patisserie/internal/common"
	"patisserie/internal/models"
)

func testIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	return issuer
}

func newOTPFixture(t *testing.T) (*fakeUserRepo, *fakeOTPLedger, *fakeEmailService, OTPService) {
	t.Helper()
	users := newFakeUserRepo()
	ledger := newFakeOTPLedger()
	email := &fakeEmailService{}
	svc := NewOTPService(users, ledger, email, testIssuer(t))
	return users, ledger, email, svc
}

func TestRequestOTP_RegistrationForVerifiedUser(t *testing.T) {
	users, _, _, svc := newOTPFixture(t)
	users.users["alice@example.com"] = &models.User{Email: "alice@example.com", IsVerified: true}

	_, err := svc.RequestOTP(context.Background(), "alice@example.com", models.PurposeRegistration)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRequestOTP_RegistrationForUnknownEmail(t *testing.T) {
	_, _, email, svc := newOTPFixture(t)

	issue, err := svc.RequestOTP(context.Background(), "new@example.com", models.PurposeRegistration)
	require.NoError(t, err)
	assert.NotEmpty(t, issue.Code)
	assert.Equal(t, []string{"new@example.com"}, email.sent)
}

func TestRequestOTP_PasswordResetGating(t *testing.T) {
	users, _, _, svc := newOTPFixture(t)

	_, err := svc.RequestOTP(context.Background(), "ghost@example.com", models.PurposePasswordReset)
	assert.ErrorIs(t, err, common.ErrNotFound)

	users.users["bob@example.com"] = &models.User{Email: "bob@example.com", IsVerified: false}
	_, err = svc.RequestOTP(context.Background(), "bob@example.com", models.PurposePasswordReset)
	assert.ErrorIs(t, err, common.ErrNotVerified)

	users.users["bob@example.com"].IsVerified = true
	_, err = svc.RequestOTP(context.Background(), "bob@example.com", models.PurposePasswordReset)
	assert.NoError(t, err)
}

func TestRequestOTP_NormalizesEmail(t *testing.T) {
	_, ledger, _, svc := newOTPFixture(t)

	_, err := svc.RequestOTP(context.Background(), "  Alice@Example.COM ", models.PurposeRegistration)
	require.NoError(t, err)
	_, ok := ledger.records["alice@example.com"]
	assert.True(t, ok)
}

func TestRequestOTP_ActiveCodeConflicts(t *testing.T) {
	_, _, _, svc := newOTPFixture(t)

	_, err := svc.RequestOTP(context.Background(), "new@example.com", models.PurposeRegistration)
	require.NoError(t, err)

	_, err = svc.RequestOTP(context.Background(), "new@example.com", models.PurposeRegistration)
	assert.ErrorIs(t, err, common.ErrOTPConflict)
}

func TestIssueAndSend_DeliveryFailureKeepsIssuance(t *testing.T) {
	_, ledger, email, svc := newOTPFixture(t)
	email.sendErr = errors.New("smtp down")

	_, err := svc.IssueAndSend(context.Background(), "new@example.com", models.PurposeRegistration)
	assert.ErrorIs(t, err, common.ErrExternalService)

	// The code survives the failed send; a retry trips the conflict guard.
	_, ok := ledger.records["new@example.com"]
	assert.True(t, ok)
	_, err = svc.IssueAndSend(context.Background(), "new@example.com", models.PurposeRegistration)
	assert.ErrorIs(t, err, common.ErrOTPConflict)
}

func TestVerifyEmail_Success(t *testing.T) {
	users, ledger, _, svc := newOTPFixture(t)
	users.users["alice@example.com"] = &models.User{Email: "alice@example.com"}
	_, err := ledger.Issue(context.Background(), "alice@example.com", models.PurposeRegistration)
	require.NoError(t, err)

	token, err := svc.VerifyEmail(context.Background(), "alice@example.com", ledger.code)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, users.users["alice@example.com"].IsVerified)

	claims, err := testIssuer(t).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, models.RoleUser, claims.UserRole())
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	users, ledger, _, svc := newOTPFixture(t)
	users.users["alice@example.com"] = &models.User{Email: "alice@example.com"}
	_, err := ledger.Issue(context.Background(), "alice@example.com", models.PurposeRegistration)
	require.NoError(t, err)

	_, err = svc.VerifyEmail(context.Background(), "alice@example.com", "00000")
	assert.ErrorIs(t, err, common.ErrInvalidCode)
	assert.False(t, users.users["alice@example.com"].IsVerified)
}

func TestVerifyEmail_LockedAfterMaxAttempts(t *testing.T) {
	users, ledger, _, svc := newOTPFixture(t)
	users.users["alice@example.com"] = &models.User{Email: "alice@example.com"}
	_, err := ledger.Issue(context.Background(), "alice@example.com", models.PurposeRegistration)
	require.NoError(t, err)

	for i := 0; i < ledger.maxAttempts; i++ {
		_, err = svc.VerifyEmail(context.Background(), "alice@example.com", "00000")
		assert.ErrorIs(t, err, common.ErrInvalidCode)
	}

	// Even the right code is refused once the counter saturates.
	_, err = svc.VerifyEmail(context.Background(), "alice@example.com", ledger.code)
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)

	var locked *common.TooManyAttemptsError
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RetryAfter, time.Duration(0))
}

func TestVerifyEmail_NoRecord(t *testing.T) {
	_, _, _, svc := newOTPFixture(t)

	_, err := svc.VerifyEmail(context.Background(), "ghost@example.com", "12345")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResetPassword_Success(t *testing.T) {
	users, ledger, _, svc := newOTPFixture(t)
	users.users["alice@example.com"] = &models.User{Email: "alice@example.com", IsVerified: true, Password: "old-hash"}
	_, err := ledger.Issue(context.Background(), "alice@example.com", models.PurposePasswordReset)
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), "alice@example.com", ledger.code, "n3w-passw0rd")
	require.NoError(t, err)

	hash := users.users["alice@example.com"].Password
	assert.NotEqual(t, "old-hash", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("n3w-passw0rd")))
}

func TestResetPassword_EmptyPassword(t *testing.T) {
	_, _, _, svc := newOTPFixture(t)

	err := svc.ResetPassword(context.Background(), "alice@example.com", "12345", "   ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegistrationFlow(t *testing.T) {
	users := newFakeUserRepo()
	ledger := newFakeOTPLedger()
	issuer := testIssuer(t)
	otpSvc := NewOTPService(users, ledger, &fakeEmailService{}, issuer)
	userSvc := NewUserService(users, otpSvc, issuer)
	ctx := context.Background()

	created, err := userSvc.Register(ctx, &models.RegisterRequest{
		Email:    "flow@example.com",
		Name:     "Flow",
		Password: "s3cret-pw",
	})
	require.NoError(t, err)
	assert.False(t, created.IsVerified)

	// Registration already issued a code; a wrong guess burns an attempt.
	_, err = otpSvc.VerifyEmail(ctx, "flow@example.com", "00000")
	assert.ErrorIs(t, err, common.ErrInvalidCode)

	token, err := otpSvc.VerifyEmail(ctx, "flow@example.com", ledger.code)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "flow@example.com", claims.Subject)
	assert.True(t, users.users["flow@example.com"].IsVerified)
}

func TestResetPassword_CodeIsSingleUse(t *testing.T) {
	users, ledger, _, svc := newOTPFixture(t)
	users.users["alice@example.com"] = &models.User{Email: "alice@example.com", IsVerified: true}
	_, err := ledger.Issue(context.Background(), "alice@example.com", models.PurposePasswordReset)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), "alice@example.com", ledger.code, "n3w-passw0rd"))

	err = svc.ResetPassword(context.Background(), "alice@example.com", ledger.code, "an0ther-one")
	assert.ErrorIs(t, err, common.ErrAlreadyVerified)
}
