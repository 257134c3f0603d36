package config

import (
	"os"
	"time"
)

const (
	signingKeyVar      = "JWT_SIGNING_KEY"
	secretKeyVar       = "SECRET_KEY"
	signingAlgVar      = "JWT_SIGNING_ALGORITHM"
	accessLifetimeVar  = "ACCESS_TOKEN_LIFETIME"
	refreshLifetimeVar = "REFRESH_TOKEN_LIFETIME"
)

type JWTConfig interface {
	GetSigningKey() []byte
	GetSigningAlgorithm() string
	GetAccessTokenLifetime() time.Duration
	GetRefreshTokenLifetime() time.Duration
}

type JWT struct{}

var _ JWTConfig = JWT{}

// GetSigningKey returns the JWT signing key, falling back to the
// process-wide SECRET_KEY when no dedicated key is configured.
func (JWT) GetSigningKey() []byte {
	if key := os.Getenv(signingKeyVar); key != "" {
		return []byte(key)
	}
	return []byte(os.Getenv(secretKeyVar))
}

func (JWT) GetSigningAlgorithm() string {
	return GetEnv(signingAlgVar, "HS256")
}

func (JWT) GetAccessTokenLifetime() time.Duration {
	return getDuration(accessLifetimeVar, 5*time.Minute)
}

func (JWT) GetRefreshTokenLifetime() time.Duration {
	return getDuration(refreshLifetimeVar, 30*24*time.Hour)
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
