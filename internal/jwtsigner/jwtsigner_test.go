package jwtsigner

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignProducesVerifiableToken(t *testing.T) {
	s, err := New("secret", "tacacs-admin")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fixed := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return fixed }

	raw, err := s.Sign("ops-bot", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return fixed.Add(time.Minute) }),
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "ops-bot" || claims.Issuer != "tacacs-admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestSignRejectsBadInput(t *testing.T) {
	if _, err := New("", "x"); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	s, _ := New("secret", "")
	if _, err := s.Sign("", time.Minute); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got %v", err)
	}
	raw, err := s.Sign("cli", 0)
	if err != nil {
		t.Fatalf("sign without expiry: %v", err)
	}
	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil }); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", claims.ExpiresAt)
	}
}
