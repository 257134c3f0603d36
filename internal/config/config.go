package config

type Config interface {
	EnvConfig
	JWTConfig
}

type mainConfig struct {
	EnvVars
	JWT
}

func New() Config {
	return mainConfig{}
}
