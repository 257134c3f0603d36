package users

import "time"

type Repo interface {
	Upsert(user *User) error
	GetByID(id string) (*User, error)
	// GetByLogin resolves a username or an email address.
	GetByLogin(login string) (*User, error)
	SetActive(id string, active bool) error
	SetLastLogin(id string, at time.Time) error
	SetPasswordHash(id string, hash string) error
}
