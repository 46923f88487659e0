// Package otp issues TOTP secrets and checks RFC 6238 codes against them.
package otp

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// SecretSize is the length in bytes of generated secrets (160 bits).
const SecretSize = 20

// MaxWindow bounds the number of steps accepted on either side of the
// current one.
const MaxWindow = 10

type Key struct {
	Secret string // base32, no padding
	URI    string
}

type GenerateOpts struct {
	Issuer      string
	AccountName string
	Digits      int
	Period      int
	Algorithm   string
	// Secret, when set, is used instead of fresh random bytes.
	Secret []byte
}

func ParseAlgorithm(name string) (potp.Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SHA1":
		return potp.AlgorithmSHA1, nil
	case "SHA256":
		return potp.AlgorithmSHA256, nil
	case "SHA512":
		return potp.AlgorithmSHA512, nil
	}
	return 0, fmt.Errorf("unsupported algorithm %q", name)
}

// Generate creates a secret and its otpauth:// provisioning URI.
func Generate(opts GenerateOpts) (Key, error) {
	alg, err := ParseAlgorithm(opts.Algorithm)
	if err != nil {
		return Key{}, err
	}
	k, err := totp.Generate(totp.GenerateOpts{
		Issuer:      opts.Issuer,
		AccountName: opts.AccountName,
		Period:      uint(opts.Period),
		SecretSize:  SecretSize,
		Secret:      opts.Secret,
		Digits:      potp.Digits(opts.Digits),
		Algorithm:   alg,
	})
	if err != nil {
		return Key{}, err
	}
	return Key{Secret: k.Secret(), URI: k.URL()}, nil
}

// Step returns the time step containing t.
func Step(t time.Time, period int) int64 {
	return t.Unix() / int64(period)
}

// Code computes the HOTP value for counter.
func Code(secret string, counter uint64, digits int, algorithm string) (string, error) {
	alg, err := ParseAlgorithm(algorithm)
	if err != nil {
		return "", err
	}
	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    potp.Digits(digits),
		Algorithm: alg,
	})
}

// CodeAt computes the TOTP value valid at t.
func CodeAt(secret string, t time.Time, period, digits int, algorithm string) (string, error) {
	return Code(secret, uint64(Step(t, period)), digits, algorithm)
}

// Match reports whether token equals the code of any counter in
// [step-window, step+window]. Negative counters are skipped. Every candidate
// is computed and compared in constant time; a token of the wrong length or
// with non-digit characters never matches.
func Match(secret, token string, step int64, window, digits int, algorithm string) (bool, error) {
	if window < 0 || window > MaxWindow {
		return false, fmt.Errorf("window %d out of range", window)
	}
	wellFormed := len(token) == digits && isDigits(token)

	matched := 0
	for c := step - int64(window); c <= step+int64(window); c++ {
		if c < 0 {
			continue
		}
		code, err := Code(secret, uint64(c), digits, algorithm)
		if err != nil {
			return false, err
		}
		matched |= subtle.ConstantTimeCompare([]byte(code), []byte(token))
	}
	return wellFormed && matched == 1, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
