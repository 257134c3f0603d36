package server

import (
	"net/http"

	"github.com/moviements/auth-server/auth"
	apperrors "github.com/moviements/auth-server/internal/errors"
	"github.com/moviements/auth-server/sessions"
	"github.com/pkg/errors"
)

// MeHandler returns the authenticated user's own record.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, UserFromContext(r.Context()))
	}
}

// SessionsHandler lists the caller's sessions.
func (s *Server) SessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())

		list, err := s.repos.Sessions.ListByUser(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// SessionHandler returns a single session. Callers may only read their own
// sessions; superusers may read anyone's.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, status := s.fetchSession(r)
		if session == nil {
			writeError(w, status, http.StatusText(status))
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// SessionDeleteHandler destroys a session, signing out whichever device
// holds it. The same ownership rule as SessionHandler applies.
func (s *Server) SessionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, status := s.fetchSession(r)
		if session == nil {
			writeError(w, status, http.StatusText(status))
			return
		}

		if err := s.repos.Sessions.Delete(session.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "failed to delete session")
			return
		}
		writeJSON(w, http.StatusOK, nil)
	}
}

func (s *Server) fetchSession(r *http.Request) (*sessions.Session, int) {
	session, err := s.repos.Sessions.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, http.StatusNotFound
		}
		return nil, http.StatusInternalServerError
	}

	if !auth.CanAccessResource(UserFromContext(r.Context()), session) {
		return nil, http.StatusForbidden
	}
	return session, http.StatusOK
}
