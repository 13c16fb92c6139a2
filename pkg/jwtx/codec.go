package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest HS256 secret we accept (256 bits).
const MinSecretLength = 32

var (
	ErrMalformed       = errors.New("jwtx: malformed token")
	ErrInvalidSig      = errors.New("jwtx: invalid signature")
	ErrExpired         = errors.New("jwtx: token expired")
	ErrSubjectMismatch = errors.New("jwtx: subject mismatch")
	ErrSecretTooShort  = errors.New("jwtx: secret too short")
)

// Decoded is the verified content of a token.
type Decoded struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec issues and verifies HS256 session tokens. It holds no mutable state
// and is safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec returns a Codec keyed with secret. A missing or short secret is a
// startup error; there is no per-call key failure after this point.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrSecretTooShort, MinSecretLength, len(secret))
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Codec{secret: key, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now. Used by tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{secret: c.secret, now: now}
}

// Alg reports the signing algorithm.
func (c *Codec) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Ready reports whether key material is loaded.
func (c *Codec) Ready() bool { return c != nil && len(c.secret) >= MinSecretLength }

// Issue signs a token for subject that expires after ttl.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	claims := NewSessionClaims(subject, ttl, c.now())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode parses raw and verifies its signature. Expiry is not checked here,
// Validate does that.
func (c *Codec) Decode(raw string) (Decoded, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Decoded{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
		default:
			return Decoded{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if err := claims.validateShape(); err != nil {
		return Decoded{}, err
	}

	return Decoded{
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IsExpired reports whether expiresAt is not in the future.
func (c *Codec) IsExpired(expiresAt time.Time) bool {
	return !c.now().Before(expiresAt)
}

// Validate decodes raw, then checks expiry and that the subject equals the
// username of an independently resolved principal.
func (c *Codec) Validate(raw, expectedSubject string) (Decoded, error) {
	d, err := c.Decode(raw)
	if err != nil {
		return Decoded{}, err
	}
	if c.IsExpired(d.ExpiresAt) {
		return Decoded{}, ErrExpired
	}
	if d.Subject != expectedSubject {
		return Decoded{}, ErrSubjectMismatch
	}
	return d, nil
}
