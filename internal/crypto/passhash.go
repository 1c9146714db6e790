// Package crypto implements server-side password hashing, verification,
// and the password strength policy.
package crypto

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopworks/storeauth/internal/errs"
)

// hashCost is tuned so a single hash takes tens of milliseconds. This is
// the dominant latency of a login and must never run under a shared lock.
const hashCost = 12

// maxPasswordBytes is bcrypt's input limit; longer inputs are rejected
// by the strength policy instead of being silently truncated.
const maxPasswordBytes = 72

// HashPassword returns the bcrypt digest of plain.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("%w: empty password", errs.ErrValidation)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether plain matches the stored digest. The
// comparison is constant-time inside bcrypt; a malformed digest is a
// mismatch, never an error.
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// CheckStrength validates plain against the password policy and returns
// every violated rule, not just the first.
func CheckStrength(plain string) []string {
	var violations []string

	if len(plain) < 8 {
		violations = append(violations, "password must be at least 8 characters long")
	}
	if len(plain) > maxPasswordBytes {
		violations = append(violations, "password must not exceed 72 bytes")
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}

	return violations
}
