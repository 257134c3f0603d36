package auth

import (
	"github.com/moviements/auth-server/token"
	"github.com/moviements/auth-server/users"
)

// Owned is implemented by resources that belong to a single user. Resources
// without an owner concept are accessible to any authenticated user.
type Owned interface {
	OwnerID() string
}

// RequireRefreshToken gates refresh-scoped operations on the structural
// classification of the presented token.
func RequireRefreshToken(authCtx *Context) error {
	if authCtx == nil || authCtx.TokenType != token.TypeRefresh {
		return RefreshTokenRequiredErr
	}
	return nil
}

// RequireAccessToken gates access-scoped operations.
func RequireAccessToken(authCtx *Context) error {
	if authCtx == nil || authCtx.TokenType != token.TypeAccess {
		return AccessTokenRequiredErr
	}
	return nil
}

// CanAccessResource reports whether user may act on resource: superusers
// always may, resources without an owner are open, otherwise the owner must
// match. Evaluate only after an access-token check has passed.
func CanAccessResource(user *users.User, resource any) bool {
	if user == nil {
		return false
	}
	if user.Superuser {
		return true
	}
	owned, ok := resource.(Owned)
	if !ok {
		return true
	}
	return owned.OwnerID() == user.ID
}
