package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patisserie/internal/common"
	"patisserie/internal/config"
	"patisserie/internal/models"
)

func newRedisLedger(t *testing.T) (*miniredis.Miniredis, OTPLedger) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		OTPTTL:         5 * time.Minute,
		OTPMaxAttempts: 3,
		OTPCodeLength:  5,
	}
	return mr, NewRedisOTPLedger(client, cfg)
}

func TestRedisOTPLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("Issue and Verify", func(t *testing.T) {
		_, ledger := newRedisLedger(t)

		issue, err := ledger.Issue(ctx, "redis-happy@example.com", models.PurposeRegistration)
		require.NoError(t, err)
		assert.Len(t, issue.Code, 5)

		record, err := ledger.Verify(ctx, "redis-happy@example.com", issue.Code)
		require.NoError(t, err)
		assert.True(t, record.IsVerified)
		assert.Equal(t, models.PurposeRegistration, record.Purpose)
	})

	t.Run("Verified flip happens once", func(t *testing.T) {
		_, ledger := newRedisLedger(t)

		issue, err := ledger.Issue(ctx, "redis-twice@example.com", models.PurposeRegistration)
		require.NoError(t, err)

		_, err = ledger.Verify(ctx, "redis-twice@example.com", issue.Code)
		require.NoError(t, err)

		// A replay of the correct code must not succeed a second time.
		_, err = ledger.Verify(ctx, "redis-twice@example.com", issue.Code)
		assert.ErrorIs(t, err, common.ErrAlreadyVerified)
	})

	t.Run("Active record blocks reissue", func(t *testing.T) {
		_, ledger := newRedisLedger(t)

		_, err := ledger.Issue(ctx, "redis-conflict@example.com", models.PurposeRegistration)
		require.NoError(t, err)

		_, err = ledger.Issue(ctx, "redis-conflict@example.com", models.PurposeRegistration)
		assert.ErrorIs(t, err, common.ErrOTPConflict)
	})

	t.Run("Wrong codes count attempts and lock", func(t *testing.T) {
		_, ledger := newRedisLedger(t)

		issue, err := ledger.Issue(ctx, "redis-locked@example.com", models.PurposeRegistration)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err = ledger.Verify(ctx, "redis-locked@example.com", "wrong")
			assert.ErrorIs(t, err, common.ErrInvalidCode)
		}

		_, err = ledger.Verify(ctx, "redis-locked@example.com", issue.Code)
		assert.ErrorIs(t, err, common.ErrTooManyAttempts)

		var locked *common.TooManyAttemptsError
		require.ErrorAs(t, err, &locked)
		assert.Greater(t, locked.RetryAfter, time.Duration(0))
	})

	t.Run("Locked record is replaceable", func(t *testing.T) {
		_, ledger := newRedisLedger(t)

		_, err := ledger.Issue(ctx, "redis-relock@example.com", models.PurposeRegistration)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err = ledger.Verify(ctx, "redis-relock@example.com", "wrong")
			assert.ErrorIs(t, err, common.ErrInvalidCode)
		}

		fresh, err := ledger.Issue(ctx, "redis-relock@example.com", models.PurposeRegistration)
		require.NoError(t, err)

		record, err := ledger.Verify(ctx, "redis-relock@example.com", fresh.Code)
		require.NoError(t, err)
		assert.Equal(t, 0, record.Attempts)
	})

	t.Run("Expired record vanishes with its TTL", func(t *testing.T) {
		mr, ledger := newRedisLedger(t)

		issue, err := ledger.Issue(ctx, "redis-expired@example.com", models.PurposePasswordReset)
		require.NoError(t, err)

		mr.FastForward(6 * time.Minute)

		// Store-enforced expiry: the key is gone, not merely stale.
		_, err = ledger.Verify(ctx, "redis-expired@example.com", issue.Code)
		assert.ErrorIs(t, err, common.ErrNotFound)

		_, err = ledger.Issue(ctx, "redis-expired@example.com", models.PurposeRegistration)
		assert.NoError(t, err)
	})

	t.Run("Verify without record is NotFound", func(t *testing.T) {
		_, ledger := newRedisLedger(t)

		_, err := ledger.Verify(ctx, "redis-ghost@example.com", "12345")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
