// Package session signs and verifies the cookie payloads that identify users
// and kiosk devices. Tokens are HMAC-SHA256 over base64url-encoded JSON and
// carry their issue time; anything malformed, forged, or older than the
// configured max-age decodes as "no session".
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for every token that must be treated as absent.
var ErrInvalid = errors.New("invalid session token")

// Claims is implemented by payload types that embed jwt.RegisteredClaims.
type Claims interface {
	jwt.Claims
	stamp(issuedAt, expiresAt time.Time)
}

// Stamped is embedded by payloads to receive iat/exp.
type Stamped struct {
	jwt.RegisteredClaims
}

func (s *Stamped) stamp(issuedAt, expiresAt time.Time) {
	s.IssuedAt = jwt.NewNumericDate(issuedAt)
	s.ExpiresAt = jwt.NewNumericDate(expiresAt)
}

// Codec signs session payloads with a shared secret.
type Codec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCodec builds a codec. maxAge bounds token validity and mirrors the cookie Max-Age.
func NewCodec(secret string, maxAge time.Duration) *Codec {
	if maxAge <= 0 {
		maxAge = 8 * time.Hour
	}
	return &Codec{secret: []byte(secret), maxAge: maxAge, now: time.Now}
}

// MaxAge returns the configured token lifetime.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

// Encode stamps and signs the payload.
func (c *Codec) Encode(claims Claims) (string, error) {
	issuedAt := c.now().UTC()
	claims.stamp(issuedAt, issuedAt.Add(c.maxAge))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies raw into dest. Any failure yields ErrInvalid.
func (c *Codec) Decode(raw string, dest Claims) error {
	if raw == "" {
		return ErrInvalid
	}
	token, err := jwt.ParseWithClaims(raw, dest, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalid
	}
	return nil
}
