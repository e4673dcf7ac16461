package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTooManyAttemptsError_MatchesSentinel(t *testing.T) {
	err := &TooManyAttemptsError{RetryAfter: 90 * time.Second}

	assert.True(t, errors.Is(err, ErrTooManyAttempts))
	assert.False(t, errors.Is(err, ErrOTPExpired))
	assert.Contains(t, err.Error(), "1m30s")
}

func TestTooManyAttemptsError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("verify failed: %w", &TooManyAttemptsError{RetryAfter: time.Minute})

	assert.True(t, errors.Is(err, ErrTooManyAttempts))

	var locked *TooManyAttemptsError
	assert.True(t, errors.As(err, &locked))
	assert.Equal(t, time.Minute, locked.RetryAfter)
}
