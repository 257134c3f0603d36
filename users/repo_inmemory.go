package users

import (
	"sync"
	"time"

	apperrors "github.com/moviements/auth-server/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepo struct {
	users map[string]*User
	lock  sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		users: make(map[string]*User),
	}
}

func (r *InMemoryRepo) Upsert(user *User) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *InMemoryRepo) GetByID(id string) (*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *InMemoryRepo) GetByLogin(login string) (*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, user := range r.users {
		if user.Username == login || user.Email == login {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *InMemoryRepo) SetActive(id string, active bool) error {
	return r.update(id, func(u *User) { u.Active = active })
}

func (r *InMemoryRepo) SetLastLogin(id string, at time.Time) error {
	return r.update(id, func(u *User) { u.LastLogin = at })
}

func (r *InMemoryRepo) SetPasswordHash(id string, hash string) error {
	return r.update(id, func(u *User) { u.PasswordHash = hash })
}

func (r *InMemoryRepo) update(id string, mutate func(*User)) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	mutate(user)
	return nil
}
