package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"patisserie/internal/common"
	"patisserie/internal/config"
	"patisserie/internal/models"
	"patisserie/internal/utils"
)

// redisOTPLedger keeps each OTP as a hash at otp:<email> with a
// store-enforced TTL. Expired records simply vanish, so an expired verify
// reads as NotFound here where the Mongo variant reports Expired.
type redisOTPLedger struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
	codeLength  int
}

func NewRedisOTPLedger(client *redis.Client, cfg *config.Config) OTPLedger {
	return &redisOTPLedger{
		client:      client,
		ttl:         cfg.OTPTTL,
		maxAttempts: cfg.OTPMaxAttempts,
		codeLength:  cfg.OTPCodeLength,
	}
}

func otpKey(email string) string {
	return "otp:" + email
}

// maxTxRetries bounds optimistic-lock retries when a watched key keeps
// changing between WATCH and EXEC.
const maxTxRetries = 3

// Issue runs the active-check and write under WATCH so two concurrent
// issuances for the same e-mail cannot both commit.
func (l *redisOTPLedger) Issue(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error) {
	code, err := utils.GenerateOTPCode(l.codeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	key := otpKey(email)
	now := time.Now()

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			attempts, _ := strconv.Atoi(fields["attempts"])
			verified := fields["is_verified"] == "1"
			if attempts < l.maxAttempts && !verified {
				return common.ErrOTPConflict
			}
			// Locked or already-consumed records are replaceable; the TTL
			// takes care of expired ones.
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, map[string]interface{}{
				"code":        code,
				"purpose":     string(purpose),
				"attempts":    0,
				"is_verified": 0,
				"created_at":  now.Unix(),
			})
			pipe.Expire(ctx, key, l.ttl)
			return nil
		})
		return err
	}

	err = l.client.Watch(ctx, txf, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// Someone else wrote the key between WATCH and EXEC.
			return nil, common.ErrOTPConflict
		}
		return nil, err
	}

	return &models.OTPIssue{Code: code, ExpiresAt: now.Add(l.ttl)}, nil
}

// Verify runs read-check-flip under WATCH, same as Issue, so two concurrent
// correct-code verifies cannot both succeed: the loser's EXEC aborts and the
// re-read finds the record already verified.
func (l *redisOTPLedger) Verify(ctx context.Context, email, code string) (*models.OTP, error) {
	key := otpKey(email)
	var record *models.OTP

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to load OTP record: %w", err)
		}
		if len(fields) == 0 {
			return common.ErrNotFound
		}

		attempts, _ := strconv.Atoi(fields["attempts"])
		if fields["is_verified"] == "1" {
			return common.ErrAlreadyVerified
		}
		if attempts >= l.maxAttempts {
			remaining, err := tx.TTL(ctx, key).Result()
			if err != nil || remaining < 0 {
				remaining = 0
			}
			return &common.TooManyAttemptsError{RetryAfter: remaining}
		}

		if fields["code"] != code {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HIncrBy(ctx, key, "attempts", 1)
				return nil
			})
			if err != nil {
				return err
			}
			return common.ErrInvalidCode
		}

		remaining, err := tx.TTL(ctx, key).Result()
		if err != nil || remaining < 0 {
			remaining = 0
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "is_verified", 1)
			return nil
		}); err != nil {
			return err
		}

		createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
		record = &models.OTP{
			Email:      email,
			Code:       code,
			Purpose:    models.OTPPurpose(fields["purpose"]),
			Attempts:   attempts,
			IsVerified: true,
			CreatedAt:  time.Unix(createdAt, 0),
			ExpiresAt:  time.Now().Add(remaining),
		}
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := l.client.Watch(ctx, txf, key)
		if err == nil {
			return record, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// The key changed under us; re-read and re-decide.
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("OTP verify for %s kept colliding with concurrent writes", email)
}
