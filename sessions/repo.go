package sessions

// Repo persists sessions. GetOrCreate must be atomic on the
// (user, userAgent, ipAddress) tuple so that two simultaneous sign-ins from
// the same device yield a single session.
type Repo interface {
	GetOrCreate(userID, userAgent, ipAddress string) (*Session, bool, error)
	Get(id string) (*Session, error)
	Touch(id string) error
	Delete(id string) error
	ListByUser(userID string) ([]*Session, error)
	DeleteByUser(userID string) error
}
