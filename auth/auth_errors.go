package auth

import "errors"

// Rejection reasons surfaced by the authentication pipeline. Revoked and
// malformed tokens share InvalidOrExpiredTokenErr on purpose: an external
// observer must not be able to tell revocation apart from invalidity.
var (
	InvalidOrExpiredTokenErr = errors.New("invalid or expired token")
	InvalidSessionErr        = errors.New("invalid session")
	UserInactiveErr          = errors.New("user is inactive")
	FingerprintMismatchErr   = errors.New("invalid session fingerprint, logged out")
	InvalidCredentialsErr    = errors.New("invalid credentials")
	InvalidRequestIDErr      = errors.New("invalid request id")
	RefreshTokenRequiredErr  = errors.New("refresh token required")
	AccessTokenRequiredErr   = errors.New("access token required")
)
