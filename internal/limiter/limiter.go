// Package limiter defines interfaces and implementations for login rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter tracks failed login attempts per identifier (an email or a
// client IP) within a rolling window and places temporary lockouts.
//
// Limiters fail open: callers must treat any returned error as "not
// limited". Blocking legitimate users on an internal bookkeeping fault
// is worse than letting an attempt through.
type Limiter interface {
	// Allow reports whether attempts for the identifier are currently
	// blocked and, if so, until when.
	Allow(ctx context.Context, identifier string) (limited bool, until time.Time, err error)

	// Failure records a failed attempt. It returns true exactly on the
	// call that reaches the lockout threshold, so the caller can surface
	// the lockout on that same request rather than the next one.
	Failure(ctx context.Context, identifier string) (becameLocked bool, err error)

	// Success deletes the identifier's record entirely, resetting its
	// history.
	Success(ctx context.Context, identifier string) error

	// Remaining reports how many attempts are left before lockout.
	Remaining(ctx context.Context, identifier string) (int, error)

	// Sweep evicts records whose window or lock has elapsed.
	Sweep()
}
