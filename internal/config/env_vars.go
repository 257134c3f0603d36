package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	redisAddrVar  = "REDIS_ADDR"
	adminUserVar  = "ADMIN_USERNAME"
	adminEmailVar = "ADMIN_EMAIL"
	adminPassVar  = "ADMIN_PASSWORD"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetRedisAddr() string
	GetAdminUsername() string
	GetAdminEmail() string
	GetAdminPassword() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Server")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetRedisAddr returns the address of the Redis instance backing the
// revocation ledger. An empty value selects the in-memory ledger.
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (EnvVars) GetAdminUsername() string {
	return GetEnv(adminUserVar, "admin")
}

func (EnvVars) GetAdminEmail() string {
	return GetEnv(adminEmailVar, "admin@localhost")
}

func (EnvVars) GetAdminPassword() string {
	return GetEnv(adminPassVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
