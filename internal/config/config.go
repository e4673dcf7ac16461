// Package config gathers every environment-driven setting into a single
// struct that is built once at startup and handed to the server, so no
// package reaches for os.Getenv at request time.
package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// OTPStore selects which backing store holds OTP records for this
// deployment. Exactly one of the two is ever active.
type OTPStore string

const (
	OTPStoreMongo OTPStore = "mongo"
	OTPStoreRedis OTPStore = "redis"
)

// Config holds runtime settings for the patisserie server.
type Config struct {
	Port           int
	MongoURI       string
	MongoDatabase  string
	RedisURL       string
	OTPStore       OTPStore
	JWTSecret      string
	JWTAlgorithm   string
	JWTExpiry      time.Duration
	OTPTTL         time.Duration
	OTPMaxAttempts int
	OTPCodeLength  int
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string
	AllowedOrigins string
}

// LoadDefaults populates Config with development defaults. Insecure for
// production; override via environment.
func (c *Config) LoadDefaults() {
	c.Port = 8080
	c.MongoDatabase = "patisserie"
	c.OTPStore = OTPStoreMongo
	c.JWTAlgorithm = "HS256"
	c.JWTExpiry = time.Hour
	c.OTPTTL = 5 * time.Minute
	c.OTPMaxAttempts = 3
	c.OTPCodeLength = 5
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 587
}

// Load builds a Config from defaults overlaid with environment variables.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	cfg.MongoURI = os.Getenv("MONGO_URI")
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.MongoDatabase = v
	}
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if v := os.Getenv("OTP_STORE"); v != "" {
		cfg.OTPStore = OTPStore(v)
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		cfg.JWTAlgorithm = v
	}
	if v := os.Getenv("JWT_EXPIRE_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.JWTExpiry = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("OTP_TTL_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil {
			cfg.OTPTTL = time.Duration(mins) * time.Minute
		}
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = port
		}
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUsername
	}
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	return cfg
}
