// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/shopworks/storeauth/internal/model"
)

// AccountRepository provides persistence for login accounts.
type AccountRepository interface {
	// Create inserts a new account and fills in its generated id.
	Create(ctx context.Context, a *model.Account) error
	// GetByID loads an account by its numeric id.
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	// GetByEmail loads an account by its unique email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// UpdateLoginState persists the failed-attempt counter and lock
	// deadline in a single atomic statement.
	UpdateLoginState(ctx context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error
	// SetActive flips the account's active flag.
	SetActive(ctx context.Context, id int64, active bool) error
}
