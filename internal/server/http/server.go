// Package httpserver exposes the authentication service over HTTP.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shopworks/storeauth/internal/errs"
	"github.com/shopworks/storeauth/internal/service"
	"github.com/shopworks/storeauth/internal/token"
)

// Server routes authentication requests to the service layer.
type Server struct {
	auth service.AuthService
	log  *zap.Logger
}

// NewServer builds the server around an auth service.
func NewServer(auth service.AuthService, log *zap.Logger) *Server {
	return &Server{auth: auth, log: log}
}

// Router assembles the chi router with middleware and all routes. The
// metrics endpoint serves the given gatherer; nil falls back to the
// Prometheus default.
func (s *Server) Router(gatherer prometheus.Gatherer) chi.Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth).Get("/verify", s.handleVerify)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	pair, err := s.auth.Authenticate(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusUnprocessableEntity, "refresh_token is required")
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// handleLogout accepts the refresh token from the body or, failing
// that, the Authorization header. It answers 200 regardless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	raw := req.RefreshToken
	if raw == "" {
		raw, _ = token.ExtractBearer(r.Header.Get("Authorization"))
	}

	_ = s.auth.Logout(r.Context(), raw)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// requireAuth verifies the bearer access token and stores the identity
// in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := token.ExtractBearer(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		id, err := s.auth.Verify(r.Context(), raw)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// writeAuthError maps service errors onto HTTP statuses. Anything not
// recognized collapses into a generic 401 so internals stay hidden.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	var rl *errs.RateLimitedError
	switch {
	case errors.As(err, &rl):
		secs := int64(rl.RetryAfter().Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
		writeError(w, http.StatusTooManyRequests, rl.Error())
	case errors.Is(err, errs.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "email and password are required")
	case errors.Is(err, errs.ErrInvalidCredentials),
		errors.Is(err, errs.ErrAccountDisabled),
		errors.Is(err, errs.ErrAccountLocked):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrTokenInvalid), errors.Is(err, errs.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusUnauthorized, "authentication failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
