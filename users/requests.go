package users

import "time"

// RequestType distinguishes the two verification flows a user can have open.
type RequestType string

const (
	RequestSignUpComplete RequestType = "signup_complete"
	RequestPasswordReset  RequestType = "password_reset"
)

// Request is a pending out-of-band verification: the request ID is handed
// to the user (normally by email) and redeemed exactly once.
type Request struct {
	ID        string
	Type      RequestType
	UserID    string
	CreatedAt time.Time
}

type RequestRepo interface {
	Create(request *Request) error
	// Get resolves a request by ID, constrained to the given type.
	Get(id string, requestType RequestType) (*Request, error)
	Delete(id string) error
	// DeleteByUser removes all of a user's requests of the given type.
	DeleteByUser(userID string, requestType RequestType) error
}
