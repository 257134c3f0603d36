package sessions

import (
	"time"

	"github.com/moviements/auth-server/token"
	"github.com/pkg/errors"
)

// Session binds a user to the device fingerprint it authenticated from.
// UserAgent and IPAddress are captured at creation and re-validated on
// every authenticated request; a mismatch destroys the session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID lets permission checks treat sessions as owned resources.
func (s *Session) OwnerID() string {
	return s.UserID
}

// MintTokenPair issues an access/refresh pair scoped to this session. The
// session ID rides in the access-token claims; the refresh token inherits
// the pairing.
func (s *Session) MintTokenPair(codec *token.Codec) (access string, refresh string, err error) {
	access, refresh, err = codec.IssuePair(map[string]any{"session_id": s.ID})
	if err != nil {
		return "", "", errors.Wrap(err, "[Session.MintTokenPair] IssuePair")
	}
	return access, refresh, nil
}
