package server

import (
	"net/http"

	"github.com/moviements/auth-server/auth"
	"github.com/pkg/errors"
)

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpResponse struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

type signInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type passwordResetRequest struct {
	Login string `json:"login"`
}

type passwordResetResponse struct {
	RequestID string `json:"request_id"`
}

type newPasswordRequest struct {
	Password string `json:"password"`
}

// SignUpHandler registers a new inactive account. The returned request id
// must be redeemed at /auth/signup/complete/{id} before sign-in works. A
// real deployment would deliver the id out of band rather than in the
// response body.
func (s *Server) SignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username, email and password are required")
			return
		}

		user, requestID, err := s.auth.SignUp(req.Username, req.Email, req.Password)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, signUpResponse{UserID: user.ID, RequestID: requestID})
	}
}

func (s *Server) SignUpCompleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.CompleteSignUp(r.PathValue("id")); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, nil)
	}
}

// SignInHandler exchanges credentials for a token pair. The pair is both
// returned in the body and set as cookies so that browser and API clients
// can use the same endpoint.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		_, access, refresh, err := s.auth.SignIn(req.Login, req.Password, r.UserAgent(), clientIP(r))
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		setTokenCookies(w, access, refresh)
		writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: access, RefreshToken: refresh})
	}
}

// RefreshHandler rotates a token pair. The middleware chain has already
// required a structurally valid refresh token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, refresh, err := s.auth.Refresh(AuthFromContext(r.Context()))
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		setTokenCookies(w, access, refresh)
		writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: access, RefreshToken: refresh})
	}
}

func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.SignOut(AuthFromContext(r.Context())); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		clearTokenCookies(w)
		writeJSON(w, http.StatusOK, nil)
	}
}

// PasswordResetRequestHandler opens a reset request. As with sign-up, the
// request id would normally be mailed to the user, not returned directly.
func (s *Server) PasswordResetRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordResetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		requestID, err := s.auth.RequestPasswordReset(req.Login)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, passwordResetResponse{RequestID: requestID})
	}
}

func (s *Server) PasswordResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req newPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := s.auth.ResetPassword(r.PathValue("id"), req.Password); err != nil {
			if errors.Is(err, auth.InvalidRequestIDErr) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, nil)
	}
}

func setTokenCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// statusForError maps service errors onto HTTP statuses. Credential
// failures are forbidden rather than unauthorized: the request reached the
// handler, the credentials themselves were refused.
func statusForError(err error) int {
	switch {
	case errors.Is(err, auth.InvalidCredentialsErr), errors.Is(err, auth.UserInactiveErr):
		return http.StatusForbidden
	case errors.Is(err, auth.RefreshTokenRequiredErr), errors.Is(err, auth.AccessTokenRequiredErr):
		return http.StatusForbidden
	case errors.Is(err, auth.InvalidRequestIDErr):
		return http.StatusNotFound
	case errors.Is(err, auth.InvalidOrExpiredTokenErr),
		errors.Is(err, auth.InvalidSessionErr),
		errors.Is(err, auth.FingerprintMismatchErr):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
