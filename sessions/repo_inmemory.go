package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/moviements/auth-server/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps sessions in process memory. A secondary index on the
// fingerprint tuple gives GetOrCreate its atomicity under the repo lock.
type InMemoryRepo struct {
	sessions map[string]*Session
	byTuple  map[fingerprintKey]string
	lock     sync.RWMutex
}

type fingerprintKey struct {
	userID    string
	userAgent string
	ipAddress string
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*Session),
		byTuple:  make(map[fingerprintKey]string),
	}
}

func (r *InMemoryRepo) GetOrCreate(userID, userAgent, ipAddress string) (*Session, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := fingerprintKey{userID: userID, userAgent: userAgent, ipAddress: ipAddress}
	if id, ok := r.byTuple[key]; ok {
		session := r.sessions[id]
		session.UpdatedAt = time.Now()
		return copySession(session), false, nil
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sessions[session.ID] = session
	r.byTuple[key] = session.ID
	return copySession(session), true, nil
}

func (r *InMemoryRepo) Get(id string) (*Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copySession(session), nil
}

func (r *InMemoryRepo) Touch(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	session.UpdatedAt = time.Now()
	return nil
}

func (r *InMemoryRepo) Delete(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(r.byTuple, fingerprintKey{
		userID:    session.UserID,
		userAgent: session.UserAgent,
		ipAddress: session.IPAddress,
	})
	delete(r.sessions, id)
	return nil
}

func (r *InMemoryRepo) ListByUser(userID string) ([]*Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var result []*Session
	for _, session := range r.sessions {
		if session.UserID == userID {
			result = append(result, copySession(session))
		}
	}
	return result, nil
}

func (r *InMemoryRepo) DeleteByUser(userID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for id, session := range r.sessions {
		if session.UserID != userID {
			continue
		}
		delete(r.byTuple, fingerprintKey{
			userID:    session.UserID,
			userAgent: session.UserAgent,
			ipAddress: session.IPAddress,
		})
		delete(r.sessions, id)
	}
	return nil
}

func copySession(s *Session) *Session {
	clone := *s
	return &clone
}
