package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"patisserie/internal/common"
	"patisserie/internal/config"
	"patisserie/internal/database"
	"patisserie/internal/models"
	"patisserie/internal/utils"
)

// mongoOTPLedger keeps OTP records in the otps collection. Expiry is
// evaluated lazily at read time; stale records are overwritten by the next
// issuance rather than reaped.
type mongoOTPLedger struct {
	collection  *mongo.Collection
	ttl         time.Duration
	maxAttempts int
	codeLength  int
}

func NewMongoOTPLedger(db database.Service, cfg *config.Config) OTPLedger {
	return &mongoOTPLedger{
		collection:  db.Database().Collection("otps"),
		ttl:         cfg.OTPTTL,
		maxAttempts: cfg.OTPMaxAttempts,
		codeLength:  cfg.OTPCodeLength,
	}
}

// Issue writes a fresh record in a single conditional upsert. The filter
// only matches records that may be replaced (expired or locked); when a live
// record exists the upsert degenerates into an insert that trips the unique
// e-mail index, so two concurrent issuances cannot both win.
func (l *mongoOTPLedger) Issue(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPIssue, error) {
	queryType := "issue"
	repository := "otp"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	code, err := utils.GenerateOTPCode(l.codeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	now := time.Now()
	record := &models.OTP{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		Attempts:  0,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}

	replaceable := bson.M{
		"email": email,
		"$or": []bson.M{
			{"expires_at": bson.M{"$lte": now}},
			{"attempts": bson.M{"$gte": l.maxAttempts}},
			{"is_verified": true},
		},
	}
	_, err = l.collection.ReplaceOne(ctx, replaceable, record, options.Replace().SetUpsert(true))
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrOTPConflict
		}
		return nil, fmt.Errorf("failed to store OTP record: %w", err)
	}

	return &models.OTPIssue{Code: code, ExpiresAt: record.ExpiresAt}, nil
}

func (l *mongoOTPLedger) Verify(ctx context.Context, email, code string) (*models.OTP, error) {
	queryType := "verify"
	repository := "otp"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	var record models.OTP
	err := l.collection.FindOne(ctx, bson.M{"email": email}).Decode(&record)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load OTP record: %w", err)
	}

	now := time.Now()
	switch {
	case record.IsVerified:
		return nil, common.ErrAlreadyVerified
	case record.IsExpired(now):
		return nil, common.ErrOTPExpired
	case record.IsLocked(l.maxAttempts):
		return nil, &common.TooManyAttemptsError{RetryAfter: record.ExpiresAt.Sub(now)}
	}

	if record.Code != code {
		_, err = l.collection.UpdateOne(ctx,
			bson.M{"_id": record.ID},
			bson.M{"$inc": bson.M{"attempts": 1}})
		if err != nil {
			status = "error"
			utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
			return nil, fmt.Errorf("failed to record OTP attempt: %w", err)
		}
		return nil, common.ErrInvalidCode
	}

	// Conditional flip so a racing second verify reports AlreadyVerified
	// instead of succeeding twice.
	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": record.ID, "is_verified": false},
		bson.M{"$set": bson.M{"is_verified": true}})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to mark OTP verified: %w", err)
	}
	if result.ModifiedCount == 0 {
		return nil, common.ErrAlreadyVerified
	}

	record.IsVerified = true
	return &record, nil
}
