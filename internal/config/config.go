package config

type Config interface {
	EnvConfig
	OAuthConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Stores
}

func New() Config {
	return mainConfig{}
}
