// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"time"
)

// The authentication core exposes exactly four kinds of failure:
// validation, rate limiting, authentication, and token errors.
// Internal faults (storage, hashing) are normalized to ErrAuthentication
// before they leave the service layer.
var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned for a wrong password and for an
	// unknown email alike, so responses cannot reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled indicates the account's active flag is off.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrAccountLocked indicates the account's persisted failure counter
	// placed a temporary lock.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrAuthentication masks internal faults during authentication.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTokenInvalid covers bad signature, expiry, wrong token type and
	// malformed structure uniformly.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrTokenRevoked indicates the token id is on the blacklist.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. email taken).
	ErrAlreadyExists = errors.New("already exists")
)

// RateLimitedError reports an active lockout and when it ends.
type RateLimitedError struct {
	Until time.Time
}

func (e *RateLimitedError) Error() string { return "too many attempts" }

// RetryAfter returns the remaining lockout duration, at least one second.
func (e *RateLimitedError) RetryAfter() time.Duration {
	d := time.Until(e.Until)
	if d < time.Second {
		d = time.Second
	}
	return d
}
