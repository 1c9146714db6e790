package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shopworks/storeauth/internal/errs"
	"github.com/shopworks/storeauth/internal/model"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row and fills in the generated id.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (email, password_hash, is_active)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, a.Email, a.PasswordHash, a.Active).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	const q = `
SELECT id, email, password_hash, is_active, failed_attempts, locked_until, created_at, updated_at
FROM accounts WHERE id=$1`
	return r.scanAccount(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects an account by its unique email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `
SELECT id, email, password_hash, is_active, failed_attempts, locked_until, created_at, updated_at
FROM accounts WHERE email=$1`
	return r.scanAccount(r.db.Pool.QueryRow(ctx, q, email))
}

func (r *AccountRepo) scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Active,
		&a.FailedAttempts, &a.LockedUntil, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpdateLoginState writes the failure counter and lock deadline in one
// statement, so the login decision and its bookkeeping land atomically.
func (r *AccountRepo) UpdateLoginState(ctx context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error {
	const q = `
UPDATE accounts
SET failed_attempts=$2, locked_until=$3, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, failedAttempts, lockedUntil)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetActive flips the active flag; deactivation keeps the row.
func (r *AccountRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `
UPDATE accounts SET is_active=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
