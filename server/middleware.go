package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/moviements/auth-server/auth"
	"github.com/moviements/auth-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated user
	ContextKeyUser ContextKey = "user"
	// ContextKeyAuth stores the authentication context
	ContextKeyAuth ContextKey = "auth"
)

// UserFromContext returns the authenticated user, nil for anonymous requests.
func UserFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(ContextKeyUser).(*users.User)
	return user
}

// AuthFromContext returns the request's authentication context, nil when anonymous.
func AuthFromContext(ctx context.Context) *auth.Context {
	authCtx, _ := ctx.Value(ContextKeyAuth).(*auth.Context)
	return authCtx
}

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// APIMiddleware is the base chain: logging, panic recovery, and the
// authentication pipeline with anonymous access permitted.
func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.AuthMiddleware(auth.AccessTokenCookie),
	}
}

// AuthenticatedAPIMiddleware is the base chain plus a requirement that some
// credential authenticated, of either token kind.
func (s *Server) AuthenticatedAPIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(s.APIMiddleware(), s.RequireAuthenticated)
}

// AccessMiddleware gates a route on an access token.
func (s *Server) AccessMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(s.APIMiddleware(), s.RequireAccessToken)
}

// RefreshMiddleware gates a route on a refresh token, falling back to the
// refresh_token cookie during extraction.
func (s *Server) RefreshMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.AuthMiddleware(auth.RefreshTokenCookie),
		s.RequireRefreshToken,
	}
}

// AuthMiddleware runs the authentication pipeline. Requests without a
// credential pass through anonymously; it is the Require* middleware and
// the permission predicates that decide whether anonymity is acceptable.
func (s *Server) AuthMiddleware(cookieName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken := auth.TokenFromRequest(r, cookieName)

			user, authCtx, err := s.auth.Authenticate(rawToken, r.UserAgent(), clientIP(r))
			if err != nil {
				writeError(w, pipelineStatus(err), err.Error())
				return
			}
			if user == nil {
				next(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAuth, authCtx)
			next(w, r.WithContext(ctx))
		}
	}
}

func (s *Server) RequireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if AuthFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

func (s *Server) RequireAccessToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.RequireAccessToken(AuthFromContext(r.Context())); err != nil {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		next(w, r)
	}
}

func (s *Server) RequireRefreshToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.RequireRefreshToken(AuthFromContext(r.Context())); err != nil {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		next(w, r)
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// pipelineStatus maps authentication pipeline rejections onto 401. Anything
// outside the pipeline's error set is an infrastructure failure.
func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, auth.InvalidOrExpiredTokenErr),
		errors.Is(err, auth.InvalidSessionErr),
		errors.Is(err, auth.UserInactiveErr),
		errors.Is(err, auth.FingerprintMismatchErr):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// clientIP strips the port from RemoteAddr; the fingerprint compares
// addresses, not ephemeral ports.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
