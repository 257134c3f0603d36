package auth

import (
	"net/http"
	"strings"

	"github.com/moviements/auth-server/sessions"
	"github.com/moviements/auth-server/token"
)

// Context is the authentication context of one request: the raw credential
// that was presented, its structural classification, and the session it
// resolved to. It holds non-owning references valid for the request only.
type Context struct {
	Token     string
	TokenType token.Type
	Session   *sessions.Session
}

// Cookie names consulted when no Authorization header is present.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the named cookie. Empty means anonymous.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
