package auth

import (
	"time"

	"github.com/google/uuid"
	apperrors "github.com/moviements/auth-server/internal/errors"
	"github.com/moviements/auth-server/sessions"
	"github.com/moviements/auth-server/token"
	"github.com/moviements/auth-server/token/blacklist"
	"github.com/moviements/auth-server/users"
	"github.com/pkg/errors"
)

// Repos holds all repository dependencies for the Service.
type Repos struct {
	Users    users.Repo
	Sessions sessions.Repo
	Requests users.RequestRepo
}

// Service is the authentication pipeline: it turns raw request credentials
// into an authenticated user plus Context, and owns the session lifecycle
// operations built on top (sign-in, token rotation, sign-out, password
// changes).
type Service struct {
	repos     Repos
	codec     *token.Codec
	blacklist *blacklist.Service
	nowFunc   func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(repos Repos, codec *token.Codec, ledger *blacklist.Service, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if repos.Requests == nil {
		return nil, errors.New("[NewService] Requests repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}
	if ledger == nil {
		return nil, errors.New("[NewService] blacklist is required")
	}

	s := &Service{
		repos:     repos,
		codec:     codec,
		blacklist: ledger,
		nowFunc:   time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Authenticate validates a presented token against the blacklist, the
// session store and the request fingerprint. An empty token is anonymous
// access, not an error: both return values are nil and downstream
// permission checks decide whether that is acceptable.
//
// The session touch and last-login update happen before the fingerprint
// check so that "last seen" reflects any structurally valid authentication
// attempt. A fingerprint mismatch destroys the session outright: one
// observed mismatch is treated as evidence the token has been replayed
// from another device.
func (s *Service) Authenticate(rawToken, userAgent, ipAddress string) (*users.User, *Context, error) {
	if rawToken == "" {
		return nil, nil, nil
	}

	claims, err := s.codec.Decode(rawToken)
	if err != nil {
		return nil, nil, InvalidOrExpiredTokenErr
	}

	revoked, err := s.blacklist.IsRevoked(rawToken)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] IsRevoked")
	}
	if revoked {
		return nil, nil, InvalidOrExpiredTokenErr
	}

	session, err := s.repos.Sessions.Get(claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, InvalidSessionErr
		}
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] Sessions.Get")
	}

	user, err := s.repos.Users.GetByID(session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, InvalidSessionErr
		}
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] Users.GetByID")
	}
	if !user.Active {
		return nil, nil, UserInactiveErr
	}

	if err := s.repos.Sessions.Touch(session.ID); err != nil {
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] Sessions.Touch")
	}
	if err := s.repos.Users.SetLastLogin(user.ID, s.nowFunc()); err != nil {
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] SetLastLogin")
	}

	if session.UserAgent != userAgent || session.IPAddress != ipAddress {
		_ = s.repos.Sessions.Delete(session.ID)
		return nil, nil, FingerprintMismatchErr
	}

	return user, &Context{
		Token:     rawToken,
		TokenType: s.codec.Classify(rawToken),
		Session:   session,
	}, nil
}

// SignIn authenticates credentials and binds a session to the device
// fingerprint. Re-authentication from the same (user, userAgent, ip) tuple
// reuses the existing session instead of creating a duplicate.
func (s *Service) SignIn(login, password, userAgent, ipAddress string) (*users.User, string, string, error) {
	user, err := s.repos.Users.GetByLogin(login)
	if err != nil {
		return nil, "", "", InvalidCredentialsErr
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", "", InvalidCredentialsErr
	}
	if !user.Active {
		return nil, "", "", UserInactiveErr
	}

	session, _, err := s.repos.Sessions.GetOrCreate(user.ID, userAgent, ipAddress)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "[Service.SignIn] Sessions.GetOrCreate")
	}
	if err := s.repos.Users.SetLastLogin(user.ID, s.nowFunc()); err != nil {
		return nil, "", "", errors.Wrap(err, "[Service.SignIn] SetLastLogin")
	}

	access, refresh, err := session.MintTokenPair(s.codec)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "[Service.SignIn] MintTokenPair")
	}
	return user, access, refresh, nil
}

// Refresh rotates a token pair: the presented refresh token and its paired
// access token are revoked, then a fresh pair is minted from the same
// session.
func (s *Service) Refresh(authCtx *Context) (string, string, error) {
	if err := RequireRefreshToken(authCtx); err != nil {
		return "", "", err
	}

	if err := s.blacklist.RevokeRefreshPair(authCtx.Token); err != nil {
		return "", "", errors.Wrap(err, "[Service.Refresh] RevokeRefreshPair")
	}

	access, refresh, err := authCtx.Session.MintTokenPair(s.codec)
	if err != nil {
		return "", "", errors.Wrap(err, "[Service.Refresh] MintTokenPair")
	}
	return access, refresh, nil
}

// SignOut revokes the presented token (and its pair, for refresh tokens)
// and destroys the session it was bound to.
func (s *Service) SignOut(authCtx *Context) error {
	if authCtx == nil {
		return AccessTokenRequiredErr
	}

	switch authCtx.TokenType {
	case token.TypeRefresh:
		if err := s.blacklist.RevokeRefreshPair(authCtx.Token); err != nil {
			return errors.Wrap(err, "[Service.SignOut] RevokeRefreshPair")
		}
	default:
		if err := s.blacklist.Revoke(authCtx.Token); err != nil {
			return errors.Wrap(err, "[Service.SignOut] Revoke")
		}
	}

	if err := s.repos.Sessions.Delete(authCtx.Session.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return errors.Wrap(err, "[Service.SignOut] Sessions.Delete")
	}
	return nil
}

// SignUp registers an inactive user and opens an activation request whose
// ID must be redeemed via CompleteSignUp before the user can sign in.
func (s *Service) SignUp(username, email, password string) (*users.User, string, error) {
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, "", err
	}
	if existing, err := s.repos.Users.GetByLogin(username); err == nil && existing != nil {
		return nil, "", errors.New("[Service.SignUp] username already taken")
	}
	if existing, err := s.repos.Users.GetByLogin(email); err == nil && existing != nil {
		return nil, "", errors.New("[Service.SignUp] email already registered")
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Service.SignUp] HashPassword")
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Active:       false,
		DateJoined:   s.nowFunc(),
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, "", errors.Wrap(err, "[Service.SignUp] Users.Upsert")
	}

	request := &users.Request{
		ID:        uuid.New().String(),
		Type:      users.RequestSignUpComplete,
		UserID:    user.ID,
		CreatedAt: s.nowFunc(),
	}
	if err := s.repos.Requests.Create(request); err != nil {
		return nil, "", errors.Wrap(err, "[Service.SignUp] Requests.Create")
	}

	return user, request.ID, nil
}

// CompleteSignUp redeems an activation request and activates the user.
func (s *Service) CompleteSignUp(requestID string) error {
	request, err := s.repos.Requests.Get(requestID, users.RequestSignUpComplete)
	if err != nil {
		return InvalidRequestIDErr
	}

	if err := s.repos.Users.SetActive(request.UserID, true); err != nil {
		return errors.Wrap(err, "[Service.CompleteSignUp] SetActive")
	}
	if err := s.repos.Requests.Delete(request.ID); err != nil {
		return errors.Wrap(err, "[Service.CompleteSignUp] Requests.Delete")
	}
	return nil
}

// RequestPasswordReset opens a reset request for the user, discarding any
// previous outstanding reset requests.
func (s *Service) RequestPasswordReset(login string) (string, error) {
	user, err := s.repos.Users.GetByLogin(login)
	if err != nil {
		return "", InvalidCredentialsErr
	}

	if err := s.repos.Requests.DeleteByUser(user.ID, users.RequestPasswordReset); err != nil {
		return "", errors.Wrap(err, "[Service.RequestPasswordReset] DeleteByUser")
	}

	request := &users.Request{
		ID:        uuid.New().String(),
		Type:      users.RequestPasswordReset,
		UserID:    user.ID,
		CreatedAt: s.nowFunc(),
	}
	if err := s.repos.Requests.Create(request); err != nil {
		return "", errors.Wrap(err, "[Service.RequestPasswordReset] Requests.Create")
	}
	return request.ID, nil
}

// ResetPassword redeems a reset request and rewrites the password. All of
// the user's sessions are destroyed: outstanding tokens reference sessions
// that no longer exist and stop authenticating.
func (s *Service) ResetPassword(requestID, newPassword string) error {
	request, err := s.repos.Requests.Get(requestID, users.RequestPasswordReset)
	if err != nil {
		return InvalidRequestIDErr
	}

	if err := s.ChangePassword(request.UserID, newPassword); err != nil {
		return errors.Wrap(err, "[Service.ResetPassword] ChangePassword")
	}
	if err := s.repos.Requests.Delete(request.ID); err != nil {
		return errors.Wrap(err, "[Service.ResetPassword] Requests.Delete")
	}
	return nil
}

// ChangePassword replaces the user's password hash and invalidates every
// session the user holds.
func (s *Service) ChangePassword(userID, newPassword string) error {
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] HashPassword")
	}
	if err := s.repos.Users.SetPasswordHash(userID, hash); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] SetPasswordHash")
	}
	if err := s.repos.Sessions.DeleteByUser(userID); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] Sessions.DeleteByUser")
	}
	return nil
}
