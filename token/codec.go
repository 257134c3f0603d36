package token

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Type discriminates the two kinds of tokens the codec issues. Undefined is
// only ever produced by Classify, for tokens that cannot be decoded at all.
type Type string

const (
	TypeAccess    Type = "access"
	TypeRefresh   Type = "refresh"
	TypeUndefined Type = "undefined"
)

// Claim names the codec owns. Caller-supplied extra claims may shadow iat
// and exp, but never the token type or the paired access token reference.
const (
	claimType        = "type"
	claimIssuedAt    = "iat"
	claimExpiresAt   = "exp"
	claimSessionID   = "session_id"
	claimAccessToken = "access_token"
)

var (
	// ErrDecode covers structural corruption and signature mismatches.
	ErrDecode = errors.New("token decode failed")
	// ErrExpired is returned by Decode once a token's exp has passed.
	ErrExpired = errors.New("token expired")
)

// Config holds the signing material and lifetimes for one Codec. Multiple
// independently configured codecs can coexist in a process.
type Config struct {
	SigningKey           []byte
	Algorithm            string        // "HS256" (default) or "EdDSA"
	AccessTokenLifetime  time.Duration // defaults to 5 minutes
	RefreshTokenLifetime time.Duration // defaults to 30 days
}

type Codec struct {
	config  Config
	method  jwt.SigningMethod
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the clock used when stamping iat/exp (primarily for testing).
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(cfg Config, options ...CodecOption) (*Codec, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("[NewCodec] signing key is required")
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "HS256"
	}
	if cfg.AccessTokenLifetime <= 0 {
		cfg.AccessTokenLifetime = 5 * time.Minute
	}
	if cfg.RefreshTokenLifetime <= 0 {
		cfg.RefreshTokenLifetime = 30 * 24 * time.Hour
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256", "HS384", "HS512":
		method = jwt.GetSigningMethod(cfg.Algorithm)
	case "EdDSA":
		if len(cfg.SigningKey) != ed25519.PrivateKeySize {
			return nil, errors.New("[NewCodec] EdDSA requires an ed25519 private key")
		}
		method = jwt.SigningMethodEdDSA
	default:
		return nil, errors.Errorf("[NewCodec] unsupported signing algorithm %q", cfg.Algorithm)
	}

	c := &Codec{
		config:  cfg,
		method:  method,
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// IssueAccess builds and signs an access token. Extra claims are merged over
// the defaults; they may shadow iat/exp but the type claim always wins.
func (c *Codec) IssueAccess(extra map[string]any) (string, error) {
	return c.issue(TypeAccess, c.config.AccessTokenLifetime, extra, "")
}

// IssueRefresh builds and signs a refresh token paired to the given access
// token. The access_token claim is set after merging extra claims so that a
// caller-supplied value can never displace the pairing.
func (c *Codec) IssueRefresh(pairedAccessToken string, extra map[string]any) (string, error) {
	return c.issue(TypeRefresh, c.config.RefreshTokenLifetime, extra, pairedAccessToken)
}

// IssuePair issues an access token and a refresh token paired to it.
func (c *Codec) IssuePair(extra map[string]any) (access string, refresh string, err error) {
	access, err = c.IssueAccess(extra)
	if err != nil {
		return "", "", errors.Wrap(err, "[Codec.IssuePair] IssueAccess")
	}
	refresh, err = c.IssueRefresh(access, extra)
	if err != nil {
		return "", "", errors.Wrap(err, "[Codec.IssuePair] IssueRefresh")
	}
	return access, refresh, nil
}

func (c *Codec) issue(tokenType Type, lifetime time.Duration, extra map[string]any, pairedAccessToken string) (string, error) {
	now := c.nowFunc()

	claims := jwt.MapClaims{
		claimIssuedAt:  now.Unix(),
		claimExpiresAt: now.Add(lifetime).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	claims[claimType] = string(tokenType)
	if tokenType == TypeRefresh {
		claims[claimAccessToken] = pairedAccessToken
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signingKey())
	if err != nil {
		return "", errors.Wrap(err, "[Codec.issue] SignedString")
	}
	return signed, nil
}

// Decode verifies the token's signature and expiry and returns its claims.
func (c *Codec) Decode(raw string) (*Claims, error) {
	return c.decode(raw, true)
}

// DecodeIgnoringExpiry verifies the signature but not the expiry. It exists
// so that lapsed tokens can still be classified and revoked.
func (c *Codec) DecodeIgnoringExpiry(raw string) (*Claims, error) {
	return c.decode(raw, false)
}

func (c *Codec) decode(raw string, verifyExpiry bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
	}
	if !verifyExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.NewParser(options...).Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return c.verifyKey(), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(ErrExpired, err.Error())
		}
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(ErrDecode, "unexpected claims type")
	}

	return claimsFromMap(mapClaims), nil
}

// Classify reports a token's kind without requiring it to still be within
// its validity window. It never fails: any token that cannot be decoded,
// or whose type claim is unrecognised, is Undefined.
func (c *Codec) Classify(raw string) Type {
	claims, err := c.DecodeIgnoringExpiry(raw)
	if err != nil {
		return TypeUndefined
	}
	switch claims.Type {
	case TypeAccess, TypeRefresh:
		return claims.Type
	default:
		return TypeUndefined
	}
}

func (c *Codec) signingKey() interface{} {
	if c.method == jwt.SigningMethodEdDSA {
		return ed25519.PrivateKey(c.config.SigningKey)
	}
	return c.config.SigningKey
}

func (c *Codec) verifyKey() interface{} {
	if c.method == jwt.SigningMethodEdDSA {
		return ed25519.PrivateKey(c.config.SigningKey).Public()
	}
	return c.config.SigningKey
}
