// Package auth mints and verifies the bearer tokens that carry identity and
// role between requests. Tokens are stateless: nothing is persisted
// server-side and the embedded expiry is the sole lifetime.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"patisserie/internal/common"
	"patisserie/internal/models"
)

// Claims embeds the registered claim set and adds the role. Subject holds
// the user's e-mail.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserRole resolves the role claim, defaulting to the non-admin role for
// tokens minted before roles existed.
func (c *Claims) UserRole() models.Role {
	return models.ParseRole(c.Role)
}

// TokenIssuer signs and verifies tokens with a single symmetric secret and
// algorithm pair fixed at construction.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer for the given HMAC algorithm name
// (HS256/HS384/HS512).
func NewTokenIssuer(secret, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token issuer: empty signing secret")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("token issuer: unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("token issuer: %q is not a symmetric algorithm", algorithm)
	}
	return &TokenIssuer{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Mint produces a signed token for the subject with the configured lifetime.
func (i *TokenIssuer) Mint(subject string, role models.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
}

// Verify parses and validates a token string. Expired tokens map to
// common.ErrTokenExpired, everything else that fails validation to
// common.ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{i.method.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
