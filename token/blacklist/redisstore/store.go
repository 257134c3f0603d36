// Package redisstore backs the revocation ledger with Redis. Keys are
// content addressed: the raw token string is hashed so that arbitrarily
// long tokens store at a fixed size, and key expiry handles pruning.
package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/moviements/auth-server/token/blacklist"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:"

// expiredEntryTTL keeps an already-expired revocation visible for a short
// window; such tokens fail signature verification anyway.
const expiredEntryTTL = time.Minute

type Store struct {
	client  redis.UniversalClient
	nowFunc func() time.Time
}

var _ blacklist.Store = (*Store)(nil)

type StoreOption func(*Store)

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func New(client redis.UniversalClient, options ...StoreOption) *Store {
	s := &Store{
		client:  client,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Insert(entry blacklist.Entry) error {
	ttl := entry.ExpiresAt.Sub(s.nowFunc())
	if ttl <= 0 {
		ttl = expiredEntryTTL
	}

	err := s.client.Set(context.Background(), entryKey(entry.Token), string(entry.TokenType), ttl).Err()
	if err != nil {
		return errors.Wrap(err, "[redisstore.Insert] Set")
	}
	return nil
}

func (s *Store) Contains(raw string) (bool, error) {
	count, err := s.client.Exists(context.Background(), entryKey(raw)).Result()
	if err != nil {
		return false, errors.Wrap(err, "[redisstore.Contains] Exists")
	}
	return count > 0, nil
}

func entryKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(sum[:])
}
