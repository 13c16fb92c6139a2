package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL matches the lifetime of the session cookie (30 minutes).
const DefaultTokenTTL = 30 * time.Minute

// Claims are the session token claims. Only sub, iat and exp are issued; the
// username is the subject so it can be checked against the resolved principal.
type Claims struct {
	jwt.RegisteredClaims
}

// NewSessionClaims builds claims for subject valid from now until now+ttl.
func NewSessionClaims(subject string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// validateShape checks the structural invariants of a decoded token: a
// subject must be present and exp must be strictly after iat.
func (c *Claims) validateShape() error {
	if c.Subject == "" || c.ExpiresAt == nil || c.IssuedAt == nil {
		return ErrMalformed
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return ErrMalformed
	}
	return nil
}
