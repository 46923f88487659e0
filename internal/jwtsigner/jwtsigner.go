// Package jwtsigner mints the HS256 admin bearer tokens accepted by the HTTP
// API guard.
package jwtsigner

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret  = errors.New("jwtsigner: empty signing secret")
	ErrNoSubject = errors.New("jwtsigner: empty subject")
)

// Signer holds the shared secret; it is safe for concurrent use.
type Signer struct {
	secret []byte
	Issuer string
	now    func() time.Time
}

func New(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Signer{secret: []byte(secret), Issuer: issuer, now: time.Now}, nil
}

// Sign issues a token for sub that expires after ttl. A zero ttl yields a
// token without expiry.
func (s *Signer) Sign(sub string, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", ErrNoSubject
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:   s.Issuer,
		Subject:  sub,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
