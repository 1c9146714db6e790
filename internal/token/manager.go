// Package token signs, verifies, and decodes the compact access and
// refresh tokens issued by the authentication service.
package token

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/shopworks/storeauth/internal/errs"
	"github.com/shopworks/storeauth/internal/model"
)

// Token type claim values. The type decides which operations accept a
// token: an access token is never valid where a refresh token is
// required, and vice versa.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// BearerType is the scheme reported alongside issued pairs.
const BearerType = "bearer"

// Claims is the exact wire payload: user_id, type, exp, iat, jti.
// Collaborator services that verify tokens independently rely on this
// shape, so no other registered claims are set.
type Claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256-signed tokens with a shared secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewManager constructs a token manager. TTLs default to 15 minutes for
// access and 7 days for refresh tokens when non-positive.
func NewManager(secret []byte, accessTTL, refreshTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// IssueAccess returns a signed access token and its lifetime in seconds.
func (m *Manager) IssueAccess(accountID int64) (string, int64, error) {
	tok, err := m.issue(accountID, TypeAccess, m.accessTTL)
	return tok, int64(m.accessTTL.Seconds()), err
}

// IssueRefresh returns a signed refresh token.
func (m *Manager) IssueRefresh(accountID int64) (string, error) {
	return m.issue(accountID, TypeRefresh, m.refreshTTL)
}

// IssuePair issues an access+refresh pair for the account.
func (m *Manager) IssuePair(accountID int64) (model.TokenPair, error) {
	access, expiresIn, err := m.IssueAccess(accountID)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := m.IssueRefresh(accountID)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    BearerType,
		ExpiresIn:    expiresIn,
	}, nil
}

func (m *Manager) issue(accountID int64, typ string, ttl time.Duration) (string, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	now := m.now()
	claims := Claims{
		UserID:    accountID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyAccess validates the signature and expiry and requires an
// access-type token.
func (m *Manager) VerifyAccess(raw string) (*Claims, error) {
	return m.verify(raw, TypeAccess)
}

// VerifyRefresh validates the signature and expiry and requires a
// refresh-type token.
func (m *Manager) VerifyRefresh(raw string) (*Claims, error) {
	return m.verify(raw, TypeRefresh)
}

// verify collapses every failure (signature, expiry, structure, wrong
// type) into ErrTokenInvalid so callers cannot be used as an oracle for
// which check failed.
func (m *Manager) verify(raw, wantType string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || claims.TokenType != wantType || claims.UserID <= 0 {
		return nil, errs.ErrTokenInvalid
	}
	return &claims, nil
}

// Decode extracts claims without verifying the signature. It exists only
// to recover jti and expiry for revocation bookkeeping, e.g. best-effort
// logout; never use it to establish trust.
func (m *Manager) Decode(raw string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, errs.ErrTokenInvalid
	}
	return &claims, nil
}

// ExtractBearer parses an "Authorization: Bearer <token>" header value.
// The scheme match is case-sensitive; a missing or malformed header
// yields ok=false, not an error.
func ExtractBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := header[len(prefix):]
	if tok == "" {
		return "", false
	}
	return tok, true
}
