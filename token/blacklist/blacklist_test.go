package blacklist_test

import (
	"testing"
	"time"

	"github.com/moviements/auth-server/token"
	"github.com/moviements/auth-server/token/blacklist"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, options ...token.CodecOption) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		SigningKey: []byte("blacklist-test-secret"),
	}, options...)
	require.NoError(t, err)
	return codec
}

func newTestService(t *testing.T, codec *token.Codec) (*blacklist.Service, *blacklist.InMemoryStore) {
	t.Helper()

	store := blacklist.NewInMemoryStore()
	service, err := blacklist.New(codec, store)
	require.NoError(t, err)
	return service, store
}

func TestRevoke(t *testing.T) {
	codec := newTestCodec(t)
	service, _ := newTestService(t, codec)

	access, err := codec.IssueAccess(map[string]any{"session_id": "s1"})
	require.NoError(t, err)
	other, err := codec.IssueAccess(map[string]any{"session_id": "s2"})
	require.NoError(t, err)

	require.NoError(t, service.Revoke(access))

	revoked, err := service.IsRevoked(access)
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = service.IsRevoked(other)
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeIdempotent(t *testing.T) {
	codec := newTestCodec(t)
	service, _ := newTestService(t, codec)

	access, err := codec.IssueAccess(nil)
	require.NoError(t, err)

	require.NoError(t, service.Revoke(access))
	require.NoError(t, service.Revoke(access))

	revoked, err := service.IsRevoked(access)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevokeMalformedToken(t *testing.T) {
	codec := newTestCodec(t)
	service, _ := newTestService(t, codec)

	require.Error(t, service.Revoke("not-a-token"))
}

func TestRevokeRefreshPair(t *testing.T) {
	codec := newTestCodec(t)
	service, _ := newTestService(t, codec)

	access, refresh, err := codec.IssuePair(nil)
	require.NoError(t, err)

	require.NoError(t, service.RevokeRefreshPair(refresh))

	revoked, err := service.IsRevoked(refresh)
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = service.IsRevoked(access)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevokeRefreshPairWithExpiredAccessToken(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	pastCodec := newTestCodec(t, token.WithNowFunc(func() time.Time { return past }))
	codec := newTestCodec(t)
	service, _ := newTestService(t, codec)

	expiredAccess, err := pastCodec.IssueAccess(nil)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(expiredAccess, nil)
	require.NoError(t, err)

	require.NoError(t, service.RevokeRefreshPair(refresh))

	revoked, err := service.IsRevoked(refresh)
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = service.IsRevoked(expiredAccess)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevokeRefreshPairSwallowsCorruptPairedToken(t *testing.T) {
	codec := newTestCodec(t)
	service, _ := newTestService(t, codec)

	refresh, err := codec.IssueRefresh("garbage", nil)
	require.NoError(t, err)

	require.NoError(t, service.RevokeRefreshPair(refresh))

	revoked, err := service.IsRevoked(refresh)
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = service.IsRevoked("garbage")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestInMemoryStoreCleanup(t *testing.T) {
	store := blacklist.NewInMemoryStore()

	require.NoError(t, store.Insert(blacklist.Entry{
		Token:     "expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, store.Insert(blacklist.Entry{
		Token:     "live",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	store.Cleanup()

	exists, err := store.Contains("expired")
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = store.Contains("live")
	require.NoError(t, err)
	require.True(t, exists)
}
