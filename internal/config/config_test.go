package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, OTPStoreMongo, c.OTPStore)
	assert.Equal(t, "HS256", c.JWTAlgorithm)
	assert.Equal(t, time.Hour, c.JWTExpiry)
	assert.Equal(t, 5*time.Minute, c.OTPTTL)
	assert.Equal(t, 3, c.OTPMaxAttempts)
	assert.Equal(t, 5, c.OTPCodeLength)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OTP_STORE", "redis")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRE_SECONDS", "120")
	t.Setenv("OTP_TTL_MINUTES", "3")
	t.Setenv("SMTP_USERNAME", "shop@example.com")
	t.Setenv("EMAIL_FROM", "")

	c := Load()
	require.NotNil(t, c)

	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, OTPStoreRedis, c.OTPStore)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, 2*time.Minute, c.JWTExpiry)
	assert.Equal(t, 3*time.Minute, c.OTPTTL)
	assert.Equal(t, "shop@example.com", c.EmailFrom, "EmailFrom falls back to SMTP username")
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("JWT_EXPIRE_SECONDS", "soon")

	c := Load()

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, time.Hour, c.JWTExpiry)
}
