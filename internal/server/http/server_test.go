package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopworks/storeauth/internal/errs"
	"github.com/shopworks/storeauth/internal/model"
)

type fakeAuth struct {
	pair     model.TokenPair
	identity model.Identity

	authErr    error
	refreshErr error
	verifyErr  error

	lastEmail    string
	lastPassword string
	lastIP       string
	logoutToken  string
	logoutCalls  int
}

func (f *fakeAuth) Authenticate(_ context.Context, email, password, ip string) (model.TokenPair, error) {
	f.lastEmail, f.lastPassword, f.lastIP = email, password, ip
	if f.authErr != nil {
		return model.TokenPair{}, f.authErr
	}
	return f.pair, nil
}

func (f *fakeAuth) Refresh(_ context.Context, _ string) (model.TokenPair, error) {
	if f.refreshErr != nil {
		return model.TokenPair{}, f.refreshErr
	}
	return f.pair, nil
}

func (f *fakeAuth) Verify(_ context.Context, _ string) (model.Identity, error) {
	if f.verifyErr != nil {
		return model.Identity{}, f.verifyErr
	}
	return f.identity, nil
}

func (f *fakeAuth) Logout(_ context.Context, raw string) error {
	f.logoutCalls++
	f.logoutToken = raw
	return nil
}

func newTestServer(fake *fakeAuth) http.Handler {
	srv := NewServer(fake, zap.NewNop())
	return srv.Router(nil)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	fake := &fakeAuth{pair: model.TokenPair{
		AccessToken:  "acc",
		RefreshToken: "ref",
		TokenType:    "bearer",
		ExpiresIn:    900,
	}}
	h := newTestServer(fake)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"email":"user@example.com","password":"Secret123"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "acc", got["access_token"])
	assert.Equal(t, "ref", got["refresh_token"])
	assert.Equal(t, "bearer", got["token_type"])
	assert.EqualValues(t, 900, got["expires_in"])

	assert.Equal(t, "user@example.com", fake.lastEmail)
	assert.Equal(t, "Secret123", fake.lastPassword)
}

func TestLoginForwardsClientIP(t *testing.T) {
	fake := &fakeAuth{}
	h := newTestServer(fake)

	doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"email":"a@b.c","password":"x"}`,
		map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})

	assert.Equal(t, "203.0.113.9", fake.lastIP)
}

func TestLoginStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", errs.ErrValidation, http.StatusUnprocessableEntity},
		{"bad credentials", errs.ErrInvalidCredentials, http.StatusUnauthorized},
		{"disabled", errs.ErrAccountDisabled, http.StatusUnauthorized},
		{"locked", errs.ErrAccountLocked, http.StatusUnauthorized},
		{"internal", errs.ErrAuthentication, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(&fakeAuth{authErr: tc.err})
			rec := doJSON(t, h, http.MethodPost, "/api/auth/login",
				`{"email":"a@b.c","password":"x"}`, nil)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestLoginRateLimited(t *testing.T) {
	until := time.Now().Add(10 * time.Minute)
	h := newTestServer(&fakeAuth{authErr: &errs.RateLimitedError{Until: until}})

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"email":"a@b.c","password":"x"}`, nil)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry := rec.Header().Get("Retry-After")
	require.NotEmpty(t, retry)
	assert.NotEqual(t, "0", retry)
}

func TestLoginMalformedBody(t *testing.T) {
	h := newTestServer(&fakeAuth{})
	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	fake := &fakeAuth{pair: model.TokenPair{
		AccessToken: "new-acc",
		TokenType:   "bearer",
		ExpiresIn:   900,
	}}
	h := newTestServer(fake)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/refresh",
		`{"refresh_token":"ref"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "new-acc", got["access_token"])
	_, hasRefresh := got["refresh_token"]
	assert.False(t, hasRefresh, "refresh token must not rotate")
}

func TestRefreshRejectsMissingToken(t *testing.T) {
	h := newTestServer(&fakeAuth{})
	rec := doJSON(t, h, http.MethodPost, "/api/auth/refresh", `{}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRefreshTokenErrors(t *testing.T) {
	for _, err := range []error{errs.ErrTokenInvalid, errs.ErrTokenRevoked} {
		h := newTestServer(&fakeAuth{refreshErr: err})
		rec := doJSON(t, h, http.MethodPost, "/api/auth/refresh",
			`{"refresh_token":"ref"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, err.Error())
	}
}

func TestLogoutAlwaysOK(t *testing.T) {
	fake := &fakeAuth{}
	h := newTestServer(fake)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/logout",
		`{"refresh_token":"whatever"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Successfully logged out", got["message"])
	assert.Equal(t, 1, fake.logoutCalls)
	assert.Equal(t, "whatever", fake.logoutToken)
}

func TestLogoutFallsBackToHeader(t *testing.T) {
	fake := &fakeAuth{}
	h := newTestServer(fake)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/logout", ``,
		map[string]string{"Authorization": "Bearer header-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "header-token", fake.logoutToken)
}

func TestVerify(t *testing.T) {
	fake := &fakeAuth{identity: model.Identity{Valid: true, AccountID: 7, Email: "u@example.com"}}
	h := newTestServer(fake)

	rec := doJSON(t, h, http.MethodGet, "/api/auth/verify", ``,
		map[string]string{"Authorization": "Bearer acc"})

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["valid"])
	assert.EqualValues(t, 7, got["user_id"])
	assert.Equal(t, "u@example.com", got["email"])
}

func TestVerifyRequiresBearer(t *testing.T) {
	h := newTestServer(&fakeAuth{})

	rec := doJSON(t, h, http.MethodGet, "/api/auth/verify", ``, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/auth/verify", ``,
		map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyRejectsBadToken(t *testing.T) {
	h := newTestServer(&fakeAuth{verifyErr: errs.ErrTokenInvalid})
	rec := doJSON(t, h, http.MethodGet, "/api/auth/verify", ``,
		map[string]string{"Authorization": "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(&fakeAuth{})
	rec := doJSON(t, h, http.MethodGet, "/healthz", ``, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	srv := NewServer(&fakeAuth{}, zap.NewNop())
	r := srv.Router(nil)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := doJSON(t, r, http.MethodGet, "/boom", ``, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
