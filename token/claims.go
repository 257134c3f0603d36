package token

import "time"

// Claims is the decoded payload of a signed token. The fields the codec
// manages are typed; everything else a caller supplied at issuance lands in
// Extra.
type Claims struct {
	Type        Type
	IssuedAt    time.Time
	ExpiresAt   time.Time
	SessionID   string         // access tokens
	AccessToken string         // refresh tokens: the paired access token, verbatim
	Extra       map[string]any // caller-supplied claims
}

func claimsFromMap(m map[string]any) *Claims {
	claims := &Claims{Extra: make(map[string]any)}

	for k, v := range m {
		switch k {
		case claimType:
			if s, ok := v.(string); ok {
				claims.Type = Type(s)
			}
		case claimIssuedAt:
			claims.IssuedAt = numericTime(v)
		case claimExpiresAt:
			claims.ExpiresAt = numericTime(v)
		case claimSessionID:
			claims.SessionID, _ = v.(string)
		case claimAccessToken:
			claims.AccessToken, _ = v.(string)
		default:
			claims.Extra[k] = v
		}
	}

	return claims
}

// numericTime converts a JSON numeric date claim. encoding/json decodes
// numbers into float64, so that is the case that matters in practice.
func numericTime(v any) time.Time {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0)
	case int64:
		return time.Unix(n, 0)
	default:
		return time.Time{}
	}
}
