// Package auth provides JWT session tokens, bcrypt password hashing,
// and the GitHub OAuth flow.
//
// Sessions are stateless: the signed token carries the user ID in its
// "sub" claim, so validating a request needs no database lookup. The
// token lives in an HttpOnly cookie set by the auth handler; the
// middleware in this package reads it back and puts the user ID in the
// request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "community-hub"

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret must be used for both; rotate it by restarting with a
// new value (all sessions are invalidated, which is acceptable here).
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production; anything under 16 is refused.
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		lifetime = 15 * time.Minute
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime}, nil
}

// Lifetime is the validity window of tokens issued by Generate. The
// handler uses it to align the cookie MaxAge with the token expiry.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate creates a signed token for the given user ID using the
// service's configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.lifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used by
// tests and for short-lived one-off tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the user ID
// from its "sub" claim.
//
// WithValidMethods pins the algorithm to HS256; without it a forged
// token could claim a different algorithm and sidestep the signature
// check entirely.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
