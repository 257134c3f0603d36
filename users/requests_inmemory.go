package users

import (
	"sync"

	apperrors "github.com/moviements/auth-server/internal/errors"
)

var _ RequestRepo = (*InMemoryRequestRepo)(nil)

type InMemoryRequestRepo struct {
	requests map[string]*Request
	lock     sync.RWMutex
}

func NewInMemoryRequestRepo() *InMemoryRequestRepo {
	return &InMemoryRequestRepo{
		requests: make(map[string]*Request),
	}
}

func (r *InMemoryRequestRepo) Create(request *Request) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *InMemoryRequestRepo) Get(id string, requestType RequestType) (*Request, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	request, ok := r.requests[id]
	if !ok || request.Type != requestType {
		return nil, apperrors.ErrNotFound
	}
	clone := *request
	return &clone, nil
}

func (r *InMemoryRequestRepo) Delete(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.requests[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *InMemoryRequestRepo) DeleteByUser(userID string, requestType RequestType) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for id, request := range r.requests {
		if request.UserID == userID && request.Type == requestType {
			delete(r.requests, id)
		}
	}
	return nil
}
