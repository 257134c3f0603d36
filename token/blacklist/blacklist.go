// Package blacklist keeps the append-only ledger of revoked tokens. Entries
// are keyed by the exact raw token string; a listed token never
// authenticates again, regardless of its remaining lifetime.
package blacklist

import (
	"time"

	"github.com/moviements/auth-server/token"
	"github.com/pkg/errors"
)

// Entry is one revocation record. Token is the raw signed string, stored as
// an opaque byte sequence and never re-parsed for equality.
type Entry struct {
	Token     string
	TokenType token.Type
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Store persists revocation entries. Insert must be idempotent: inserting
// an already-present token is not an error. Implementations may prune
// entries once ExpiresAt has passed.
type Store interface {
	Insert(entry Entry) error
	Contains(raw string) (bool, error)
}

type Service struct {
	codec   *token.Codec
	store   Store
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func New(codec *token.Codec, store Store, options ...ServiceOption) (*Service, error) {
	if codec == nil {
		return nil, errors.New("[blacklist.New] codec is required")
	}
	if store == nil {
		return nil, errors.New("[blacklist.New] store is required")
	}

	s := &Service{
		codec:   codec,
		store:   store,
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Revoke adds the token to the ledger. The token's signature must verify so
// that its type and expiry can be recovered, but a lapsed expiry is fine.
func (s *Service) Revoke(raw string) error {
	claims, err := s.codec.DecodeIgnoringExpiry(raw)
	if err != nil {
		return errors.Wrap(err, "[Service.Revoke] DecodeIgnoringExpiry")
	}

	if err := s.insert(raw, s.codec.Classify(raw), claims.ExpiresAt); err != nil {
		return errors.Wrap(err, "[Service.Revoke] insert")
	}
	return nil
}

// RevokeRefreshPair revokes the refresh token and, best effort, the access
// token embedded in it. The refresh revocation is the primary guarantee: a
// defect in the paired access token is swallowed, not propagated.
func (s *Service) RevokeRefreshPair(refreshToken string) error {
	refreshClaims, err := s.codec.DecodeIgnoringExpiry(refreshToken)
	if err != nil {
		return errors.Wrap(err, "[Service.RevokeRefreshPair] DecodeIgnoringExpiry")
	}

	if err := s.insert(refreshToken, token.TypeRefresh, refreshClaims.ExpiresAt); err != nil {
		return errors.Wrap(err, "[Service.RevokeRefreshPair] insert refresh")
	}

	accessClaims, err := s.codec.DecodeIgnoringExpiry(refreshClaims.AccessToken)
	if err != nil {
		return nil
	}
	_ = s.insert(refreshClaims.AccessToken, token.TypeAccess, accessClaims.ExpiresAt)
	return nil
}

// IsRevoked is an exact raw-string membership test.
func (s *Service) IsRevoked(raw string) (bool, error) {
	revoked, err := s.store.Contains(raw)
	if err != nil {
		return false, errors.Wrap(err, "[Service.IsRevoked] Contains")
	}
	return revoked, nil
}

func (s *Service) insert(raw string, tokenType token.Type, expiresAt time.Time) error {
	now := s.nowFunc()
	if expiresAt.IsZero() {
		expiresAt = now
	}
	return s.store.Insert(Entry{
		Token:     raw,
		TokenType: tokenType,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
}
