package auth_test

import (
	"testing"
	"time"

	"github.com/moviements/auth-server/auth"
	"github.com/moviements/auth-server/sessions"
	"github.com/moviements/auth-server/token"
	"github.com/moviements/auth-server/token/blacklist"
	"github.com/moviements/auth-server/users"
	"github.com/stretchr/testify/require"
)

const (
	secretStr        = "test-secret-1234"
	testUserID       = "user-1"
	testUsername     = "testuser"
	testUserEmail    = "testuser@example.com"
	testUserPassword = "Password1"
	testUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15) AppleWebKit/537.36"
	testIP           = "127.0.0.1"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    *users.InMemoryRepo
	sessionRepo *sessions.InMemoryRepo
	requestRepo *users.InMemoryRequestRepo
	codec       *token.Codec
	ledger      *blacklist.Service
	service     *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	codec, err := token.NewCodec(token.Config{SigningKey: []byte(secretStr)})
	require.NoError(t, err)

	ur := users.NewInMemoryRepo()
	sr := sessions.NewInMemoryRepo()
	rr := users.NewInMemoryRequestRepo()

	ledger, err := blacklist.New(codec, blacklist.NewInMemoryStore())
	require.NoError(t, err)

	service, err := auth.NewService(auth.Repos{
		Users:    ur,
		Sessions: sr,
		Requests: rr,
	}, codec, ledger)
	require.NoError(t, err)

	return &testFixture{
		userRepo:    ur,
		sessionRepo: sr,
		requestRepo: rr,
		codec:       codec,
		ledger:      ledger,
		service:     service,
	}
}

// createTestUser creates and stores an active test user
func (f *testFixture) createTestUser(t *testing.T, superuser bool) *users.User {
	t.Helper()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	user := &users.User{
		ID:           testUserID,
		Username:     testUsername,
		Email:        testUserEmail,
		PasswordHash: hash,
		Active:       true,
		Superuser:    superuser,
		DateJoined:   time.Now(),
	}
	require.NoError(t, f.userRepo.Upsert(user))
	return user
}

// signIn signs the test user in and returns the minted pair
func (f *testFixture) signIn(t *testing.T) (string, string) {
	t.Helper()

	_, access, refresh, err := f.service.SignIn(testUsername, testUserPassword, testUserAgent, testIP)
	require.NoError(t, err)
	return access, refresh
}

func TestAuthenticateAnonymous(t *testing.T) {
	f := setupTestFixture(t)

	user, authCtx, err := f.service.Authenticate("", testUserAgent, testIP)
	require.NoError(t, err)
	require.Nil(t, user)
	require.Nil(t, authCtx)
}

func TestAuthenticateMalformedToken(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.service.Authenticate("not-a-token", testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidOrExpiredTokenErr)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)

	past := time.Now().Add(-time.Hour)
	pastCodec, err := token.NewCodec(token.Config{SigningKey: []byte(secretStr)},
		token.WithNowFunc(func() time.Time { return past }))
	require.NoError(t, err)

	session, _, err := f.sessionRepo.GetOrCreate(testUserID, testUserAgent, testIP)
	require.NoError(t, err)
	expired, _, err := session.MintTokenPair(pastCodec)
	require.NoError(t, err)

	_, _, err = f.service.Authenticate(expired, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidOrExpiredTokenErr)
}

func TestAuthenticateRevokedToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	require.NoError(t, f.ledger.Revoke(access))

	// Revocation must be indistinguishable from generic invalidity.
	_, _, err := f.service.Authenticate(access, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidOrExpiredTokenErr)
}

func TestAuthenticateMissingSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	claims, err := f.codec.Decode(access)
	require.NoError(t, err)
	require.NoError(t, f.sessionRepo.Delete(claims.SessionID))

	_, _, err = f.service.Authenticate(access, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidSessionErr)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	require.NoError(t, f.userRepo.SetActive(testUserID, false))

	_, _, err := f.service.Authenticate(access, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.UserInactiveErr)
}

func TestAuthenticateSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, refresh := f.signIn(t)

	user, authCtx, err := f.service.Authenticate(access, testUserAgent, testIP)
	require.NoError(t, err)
	require.Equal(t, testUserID, user.ID)
	require.Equal(t, access, authCtx.Token)
	require.Equal(t, token.TypeAccess, authCtx.TokenType)
	require.NotNil(t, authCtx.Session)
	require.False(t, user.LastLogin.IsZero())

	// A refresh token authenticates through the same pipeline; the
	// context classification is what gates refresh-only endpoints.
	_, refreshCtx, err := f.service.Authenticate(refresh, testUserAgent, testIP)
	require.NoError(t, err)
	require.Equal(t, token.TypeRefresh, refreshCtx.TokenType)
}

func TestAuthenticateFingerprintMismatch(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	claims, err := f.codec.Decode(access)
	require.NoError(t, err)

	_, _, err = f.service.Authenticate(access, testUserAgent, "10.0.0.99")
	require.ErrorIs(t, err, auth.FingerprintMismatchErr)

	// The mismatch burns the session.
	_, err = f.sessionRepo.Get(claims.SessionID)
	require.Error(t, err)

	// A retry with the same token now fails on the missing session.
	_, _, err = f.service.Authenticate(access, testUserAgent, "10.0.0.99")
	require.ErrorIs(t, err, auth.InvalidSessionErr)
}

func TestAuthenticateTouchesBeforeFingerprintCheck(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	stored, err := f.userRepo.GetByID(testUserID)
	require.NoError(t, err)
	before := stored.LastLogin

	time.Sleep(5 * time.Millisecond)
	_, _, err = f.service.Authenticate(access, "different-agent", testIP)
	require.ErrorIs(t, err, auth.FingerprintMismatchErr)

	stored, err = f.userRepo.GetByID(testUserID)
	require.NoError(t, err)
	require.True(t, stored.LastLogin.After(before))
}

func TestSignIn(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)

	user, access, refresh, err := f.service.SignIn(testUsername, testUserPassword, testUserAgent, testIP)
	require.NoError(t, err)
	require.Equal(t, testUserID, user.ID)
	require.Equal(t, token.TypeAccess, f.codec.Classify(access))
	require.Equal(t, token.TypeRefresh, f.codec.Classify(refresh))

	// Email works as login too.
	_, _, _, err = f.service.SignIn(testUserEmail, testUserPassword, testUserAgent, testIP)
	require.NoError(t, err)
}

func TestSignInInvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)

	_, _, _, err := f.service.SignIn("unknown", testUserPassword, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)

	_, _, _, err = f.service.SignIn(testUsername, "WrongPassword1", testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
}

func TestSignInInactiveUser(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	require.NoError(t, f.userRepo.SetActive(testUserID, false))

	_, _, _, err := f.service.SignIn(testUsername, testUserPassword, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.UserInactiveErr)
}

func TestSignInReusesSessionForSameFingerprint(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)

	firstAccess, _ := f.signIn(t)
	secondAccess, _ := f.signIn(t)

	firstClaims, err := f.codec.Decode(firstAccess)
	require.NoError(t, err)
	secondClaims, err := f.codec.Decode(secondAccess)
	require.NoError(t, err)
	require.Equal(t, firstClaims.SessionID, secondClaims.SessionID)

	list, err := f.sessionRepo.ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRefreshRequiresRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	_, authCtx, err := f.service.Authenticate(access, testUserAgent, testIP)
	require.NoError(t, err)

	_, _, err = f.service.Refresh(authCtx)
	require.ErrorIs(t, err, auth.RefreshTokenRequiredErr)

	_, _, err = f.service.Refresh(nil)
	require.ErrorIs(t, err, auth.RefreshTokenRequiredErr)
}

func TestRefreshRotatesPair(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	oldAccess, oldRefresh := f.signIn(t)

	_, authCtx, err := f.service.Authenticate(oldRefresh, testUserAgent, testIP)
	require.NoError(t, err)

	newAccess, newRefresh, err := f.service.Refresh(authCtx)
	require.NoError(t, err)

	// Old pair is revoked.
	revoked, err := f.ledger.IsRevoked(oldRefresh)
	require.NoError(t, err)
	require.True(t, revoked)
	revoked, err = f.ledger.IsRevoked(oldAccess)
	require.NoError(t, err)
	require.True(t, revoked)

	_, _, err = f.service.Authenticate(oldAccess, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidOrExpiredTokenErr)
	_, _, err = f.service.Authenticate(oldRefresh, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidOrExpiredTokenErr)

	// New pair authenticates and stays bound to the same session.
	_, newCtx, err := f.service.Authenticate(newAccess, testUserAgent, testIP)
	require.NoError(t, err)
	require.Equal(t, authCtx.Session.ID, newCtx.Session.ID)
	require.Equal(t, token.TypeRefresh, f.codec.Classify(newRefresh))
}

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	_, authCtx, err := f.service.Authenticate(access, testUserAgent, testIP)
	require.NoError(t, err)

	require.NoError(t, f.service.SignOut(authCtx))

	revoked, err := f.ledger.IsRevoked(access)
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = f.sessionRepo.Get(authCtx.Session.ID)
	require.Error(t, err)
}

func TestSignUpAndComplete(t *testing.T) {
	f := setupTestFixture(t)

	user, requestID, err := f.service.SignUp("newuser", "newuser@example.com", "Password1")
	require.NoError(t, err)
	require.False(t, user.Active)
	require.NotEmpty(t, requestID)

	// Sign-in is blocked until activation.
	_, _, _, err = f.service.SignIn("newuser", "Password1", testUserAgent, testIP)
	require.ErrorIs(t, err, auth.UserInactiveErr)

	require.NoError(t, f.service.CompleteSignUp(requestID))

	_, _, _, err = f.service.SignIn("newuser", "Password1", testUserAgent, testIP)
	require.NoError(t, err)

	// The request is single use.
	require.ErrorIs(t, f.service.CompleteSignUp(requestID), auth.InvalidRequestIDErr)
}

func TestSignUpWeakPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.service.SignUp("newuser", "newuser@example.com", "weak")
	require.Error(t, err)
}

func TestSignUpDuplicateUsername(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)

	_, _, err := f.service.SignUp(testUsername, "other@example.com", "Password1")
	require.Error(t, err)
}

func TestPasswordResetInvalidatesSessions(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)
	access, _ := f.signIn(t)

	requestID, err := f.service.RequestPasswordReset(testUsername)
	require.NoError(t, err)

	require.NoError(t, f.service.ResetPassword(requestID, "NewPassword1"))

	// Old token references a destroyed session.
	_, _, err = f.service.Authenticate(access, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidSessionErr)

	// Old password no longer works, the new one does.
	_, _, _, err = f.service.SignIn(testUsername, testUserPassword, testUserAgent, testIP)
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	_, _, _, err = f.service.SignIn(testUsername, "NewPassword1", testUserAgent, testIP)
	require.NoError(t, err)
}

func TestRequestPasswordResetReplacesPrevious(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, false)

	first, err := f.service.RequestPasswordReset(testUsername)
	require.NoError(t, err)
	second, err := f.service.RequestPasswordReset(testUsername)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.ErrorIs(t, f.service.ResetPassword(first, "NewPassword1"), auth.InvalidRequestIDErr)
	require.NoError(t, f.service.ResetPassword(second, "NewPassword1"))
}

func TestRequestPasswordResetUnknownLogin(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.RequestPasswordReset("nobody")
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
}
