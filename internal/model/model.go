// Package model defines domain entities used by services and repositories.
package model

import "time"

// Account is a login account stored in PostgreSQL. The failure counter
// and lock are mutated by the auth service on every login attempt; the
// row itself is never deleted, deactivation is a flag flip.
type Account struct {
	ID             int64
	Email          string // unique, stored lowercase
	PasswordHash   string // bcrypt digest
	Active         bool
	FailedAttempts int
	LockedUntil    *time.Time // set only when FailedAttempts crosses the threshold
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TokenPair is the login/refresh response body. Refresh responses carry
// only a new access token; the refresh token is not rotated.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Identity is the result of verifying an access token. It is the trust
// boundary other services rely on for authorization.
type Identity struct {
	Valid     bool   `json:"valid"`
	AccountID int64  `json:"user_id"`
	Email     string `json:"email"`
}
