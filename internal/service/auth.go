// Package service contains the authentication orchestrator.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/shopworks/storeauth/internal/crypto"
	"github.com/shopworks/storeauth/internal/errs"
	"github.com/shopworks/storeauth/internal/limiter"
	"github.com/shopworks/storeauth/internal/metrics"
	"github.com/shopworks/storeauth/internal/model"
	"github.com/shopworks/storeauth/internal/repository"
	"github.com/shopworks/storeauth/internal/revoke"
	"github.com/shopworks/storeauth/internal/token"
)

// AuthService defines the boundary operations consumed by the HTTP layer.
type AuthService interface {
	// Authenticate validates credentials and issues an access+refresh pair.
	Authenticate(ctx context.Context, email, password, clientIP string) (model.TokenPair, error)
	// Refresh exchanges a valid refresh token for a new access token.
	// The refresh token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// Verify validates an access token and resolves the caller's identity.
	Verify(ctx context.Context, accessToken string) (model.Identity, error)
	// Logout revokes the refresh token's jti. It never fails visibly.
	Logout(ctx context.Context, refreshToken string) error
}

// Auth composes the credential hasher, token manager, revocation store,
// and rate limiter into the login/refresh/verify/logout flows. The
// stateful collaborators are injected, never ambient.
type Auth struct {
	accounts repository.AccountRepository
	tokens   *token.Manager
	revoked  *revoke.Store
	lim      limiter.Limiter
	mtr      *metrics.Metrics
	log      *zap.Logger

	maxAttempts int
	lockFor     time.Duration
	now         func() time.Time
}

// NewAuth constructs the auth service with default lockout policy
// (5 attempts, 15 minute lock).
func NewAuth(accounts repository.AccountRepository, tokens *token.Manager,
	revoked *revoke.Store, lim limiter.Limiter, mtr *metrics.Metrics, log *zap.Logger) *Auth {
	return &Auth{
		accounts:    accounts,
		tokens:      tokens,
		revoked:     revoked,
		lim:         lim,
		mtr:         mtr,
		log:         log,
		maxAttempts: 5,
		lockFor:     15 * time.Minute,
		now:         time.Now,
	}
}

// WithLockPolicy overrides the per-account lockout threshold and duration.
func (s *Auth) WithLockPolicy(maxAttempts int, lockFor time.Duration) *Auth {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if lockFor > 0 {
		s.lockFor = lockFor
	}
	return s
}

// Authenticate runs the login flow: rate check, account lookup, active
// and lock checks, then the bcrypt verification. Every credential
// failure records a limiter failure through the same path, so a missing
// account is indistinguishable from a wrong password.
func (s *Auth) Authenticate(ctx context.Context, email, password, clientIP string) (model.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return model.TokenPair{}, errs.ErrValidation
	}

	limited, until, err := s.lim.Allow(ctx, email)
	if err != nil {
		// Fail open: a limiter fault must not lock legitimate users out.
		s.log.Warn("rate limiter check failed", zap.Error(err), zap.String("ip", clientIP))
	} else if limited {
		s.mtr.Logins.WithLabelValues(metrics.ResultRateLimited).Inc()
		return model.TokenPair{}, &errs.RateLimitedError{Until: until}
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.TokenPair{}, s.credentialFailure(ctx, email, errs.ErrInvalidCredentials)
		}
		s.log.Error("account lookup", zap.Error(err), zap.String("ip", clientIP))
		return model.TokenPair{}, errs.ErrAuthentication
	}

	if !acct.Active {
		return model.TokenPair{}, s.credentialFailure(ctx, email, errs.ErrAccountDisabled)
	}

	now := s.now()
	if acct.LockedUntil != nil && now.Before(*acct.LockedUntil) {
		return model.TokenPair{}, s.credentialFailure(ctx, email, errs.ErrAccountLocked)
	}

	if !pkgcrypto.VerifyPassword(password, acct.PasswordHash) {
		becameLocked := s.recordFailure(ctx, email)

		attempts := acct.FailedAttempts + 1
		var lockUntil *time.Time
		if attempts >= s.maxAttempts {
			t := now.Add(s.lockFor)
			lockUntil = &t
		}
		if err := s.accounts.UpdateLoginState(ctx, acct.ID, attempts, lockUntil); err != nil {
			s.log.Error("persist failed attempt", zap.Error(err), zap.Int64("account_id", acct.ID))
		}

		if becameLocked {
			s.mtr.Logins.WithLabelValues(metrics.ResultRateLimited).Inc()
			return model.TokenPair{}, &errs.RateLimitedError{Until: now.Add(s.lockFor)}
		}
		s.mtr.Logins.WithLabelValues(metrics.ResultFailure).Inc()
		return model.TokenPair{}, errs.ErrInvalidCredentials
	}

	if err := s.lim.Success(ctx, email); err != nil {
		s.log.Warn("rate limiter reset", zap.Error(err))
	}
	if acct.FailedAttempts > 0 || acct.LockedUntil != nil {
		if err := s.accounts.UpdateLoginState(ctx, acct.ID, 0, nil); err != nil {
			s.log.Error("reset failure counter", zap.Error(err), zap.Int64("account_id", acct.ID))
			return model.TokenPair{}, errs.ErrAuthentication
		}
	}

	pair, err := s.tokens.IssuePair(acct.ID)
	if err != nil {
		s.log.Error("issue tokens", zap.Error(err), zap.Int64("account_id", acct.ID))
		return model.TokenPair{}, errs.ErrAuthentication
	}

	s.mtr.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
	s.log.Info("login", zap.Int64("account_id", acct.ID), zap.String("ip", clientIP))
	return pair, nil
}

// credentialFailure books a limiter failure and returns either the
// given credential error or, when this failure trips the lockout, the
// rate-limit error so the locking attempt reports it immediately.
func (s *Auth) credentialFailure(ctx context.Context, email string, cause error) error {
	if s.recordFailure(ctx, email) {
		s.mtr.Logins.WithLabelValues(metrics.ResultRateLimited).Inc()
		return &errs.RateLimitedError{Until: s.now().Add(s.lockFor)}
	}
	s.mtr.Logins.WithLabelValues(metrics.ResultFailure).Inc()
	return cause
}

func (s *Auth) recordFailure(ctx context.Context, email string) bool {
	becameLocked, err := s.lim.Failure(ctx, email)
	if err != nil {
		s.log.Warn("rate limiter bookkeeping failed", zap.Error(err))
		return false
	}
	if becameLocked {
		s.mtr.Lockouts.Inc()
	}
	return becameLocked
}

// Refresh validates the refresh token, checks the blacklist, re-checks
// the account, and issues a new access token only.
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.mtr.TokenChecks.WithLabelValues("refresh", "invalid").Inc()
		return model.TokenPair{}, errs.ErrTokenInvalid
	}
	if s.revoked.IsRevoked(claims.ID) {
		s.mtr.TokenChecks.WithLabelValues("refresh", "revoked").Inc()
		return model.TokenPair{}, errs.ErrTokenRevoked
	}

	acct, err := s.activeAccount(ctx, claims.UserID)
	if err != nil {
		s.mtr.TokenChecks.WithLabelValues("refresh", "invalid").Inc()
		return model.TokenPair{}, err
	}

	access, expiresIn, err := s.tokens.IssueAccess(acct.ID)
	if err != nil {
		s.log.Error("issue access token", zap.Error(err), zap.Int64("account_id", acct.ID))
		return model.TokenPair{}, errs.ErrAuthentication
	}

	s.mtr.TokenChecks.WithLabelValues("refresh", "ok").Inc()
	return model.TokenPair{
		AccessToken: access,
		TokenType:   token.BearerType,
		ExpiresIn:   expiresIn,
	}, nil
}

// Verify validates an access token against the same chain as Refresh
// and resolves the caller's identity.
func (s *Auth) Verify(ctx context.Context, accessToken string) (model.Identity, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		s.mtr.TokenChecks.WithLabelValues("verify", "invalid").Inc()
		return model.Identity{}, errs.ErrTokenInvalid
	}
	if s.revoked.IsRevoked(claims.ID) {
		s.mtr.TokenChecks.WithLabelValues("verify", "revoked").Inc()
		return model.Identity{}, errs.ErrTokenRevoked
	}

	acct, err := s.activeAccount(ctx, claims.UserID)
	if err != nil {
		s.mtr.TokenChecks.WithLabelValues("verify", "invalid").Inc()
		return model.Identity{}, err
	}

	s.mtr.TokenChecks.WithLabelValues("verify", "ok").Inc()
	return model.Identity{Valid: true, AccountID: acct.ID, Email: acct.Email}, nil
}

// activeAccount re-checks the account behind a token, covering
// deactivation or deletion after issuance. Failures surface as token
// errors so the caller learns nothing about the account itself.
func (s *Auth) activeAccount(ctx context.Context, id int64) (*model.Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.log.Error("account re-check", zap.Error(err), zap.Int64("account_id", id))
		}
		return nil, errs.ErrTokenInvalid
	}
	if !acct.Active {
		return nil, errs.ErrTokenInvalid
	}
	return acct, nil
}

// Logout always reports success: failing a logout leaks token state and
// complicates client retries. The jti lands on the blacklist only when
// the token decodes far enough to provide one together with an expiry.
func (s *Auth) Logout(_ context.Context, refreshToken string) error {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	s.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	s.mtr.Revocations.Inc()
	return nil
}
