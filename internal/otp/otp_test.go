package otp

import (
	"encoding/base32"
	"net/url"
	"strings"
	"testing"
	"time"
)

func b32(s string) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(s))
}

// RFC 6238 appendix B.
func TestCodeAtRFC6238Vectors(t *testing.T) {
	seed20 := b32("12345678901234567890")
	seed32 := b32("12345678901234567890123456789012")
	seed64 := b32("1234567890123456789012345678901234567890123456789012345678901234")

	cases := []struct {
		unix   int64
		secret string
		alg    string
		want   string
	}{
		{59, seed20, "SHA1", "94287082"},
		{59, seed32, "SHA256", "46119246"},
		{59, seed64, "SHA512", "90693936"},
		{1111111109, seed20, "SHA1", "07081804"},
		{1111111109, seed32, "SHA256", "68084774"},
		{1111111109, seed64, "SHA512", "25091201"},
		{1234567890, seed20, "SHA1", "89005924"},
		{1234567890, seed32, "SHA256", "91819424"},
		{1234567890, seed64, "SHA512", "93441116"},
		{20000000000, seed20, "SHA1", "65353130"},
	}
	for _, tc := range cases {
		got, err := CodeAt(tc.secret, time.Unix(tc.unix, 0), 30, 8, tc.alg)
		if err != nil {
			t.Fatalf("%s@%d: %v", tc.alg, tc.unix, err)
		}
		if got != tc.want {
			t.Fatalf("%s@%d: expected %s, got %s", tc.alg, tc.unix, tc.want, got)
		}
	}
}

// RFC 4226 appendix D.
func TestCodeRFC4226Vectors(t *testing.T) {
	secret := b32("12345678901234567890")
	want := []string{"755224", "287082", "359152", "969429", "338314", "254676", "287922", "162583", "399871", "520489"}
	for counter, w := range want {
		got, err := Code(secret, uint64(counter), 6, "SHA1")
		if err != nil {
			t.Fatalf("counter %d: %v", counter, err)
		}
		if got != w {
			t.Fatalf("counter %d: expected %s, got %s", counter, w, got)
		}
	}
}

func TestMatchWindow(t *testing.T) {
	secret := b32("12345678901234567890")
	step := int64(1000)
	prev, _ := Code(secret, uint64(step-1), 6, "SHA1")
	far, _ := Code(secret, uint64(step-3), 6, "SHA1")

	cases := []struct {
		name   string
		token  string
		window int
		want   bool
	}{
		{"previous step inside window", prev, 1, true},
		{"previous step outside window", prev, 0, false},
		{"three steps back", far, 2, false},
		{"non digits", "12ab56", 1, false},
		{"short token", prev[:5], 1, false},
		{"empty token", "", 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Match(secret, tc.token, step, tc.window, 6, "SHA1")
			if err != nil {
				t.Fatalf("match: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMatchSkipsNegativeCounters(t *testing.T) {
	secret := b32("12345678901234567890")
	code, _ := Code(secret, 0, 6, "SHA1")
	ok, err := Match(secret, code, 0, 3, 6, "SHA1")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !ok {
		t.Fatalf("expected counter 0 to match at step 0")
	}
}

func TestMatchRejectsLargeWindow(t *testing.T) {
	if _, err := Match(b32("x"), "123456", 10, MaxWindow+1, 6, "SHA1"); err == nil {
		t.Fatalf("expected error for window above %d", MaxWindow)
	}
}

func TestGenerateURI(t *testing.T) {
	key, err := Generate(GenerateOpts{Issuer: "tacacs-plus", AccountName: "alice", Digits: 6, Period: 30, Algorithm: "SHA256"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(key.Secret) != 32 || strings.Contains(key.Secret, "=") {
		t.Fatalf("expected 32 char unpadded base32 secret, got %q", key.Secret)
	}
	u, err := url.Parse(key.URI)
	if err != nil {
		t.Fatalf("parse uri: %v", err)
	}
	if u.Scheme != "otpauth" || u.Host != "totp" || u.Path != "/tacacs-plus:alice" {
		t.Fatalf("unexpected uri %s", key.URI)
	}
	q := u.Query()
	if q.Get("secret") != key.Secret || q.Get("issuer") != "tacacs-plus" || q.Get("algorithm") != "SHA256" ||
		q.Get("digits") != "6" || q.Get("period") != "30" {
		t.Fatalf("unexpected uri query %v", q)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, name := range []string{"SHA1", "sha256", " SHA512 "} {
		if _, err := ParseAlgorithm(name); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := ParseAlgorithm("MD5"); err == nil {
		t.Fatalf("expected MD5 to be rejected")
	}
}
