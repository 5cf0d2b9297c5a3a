package config

import (
	"time"
)

type StoreConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetPostgresDSN() string
	GetSessionTTL() time.Duration
	GetCSRFTokenTTL() time.Duration
}

type Stores struct{}

var _ StoreConfig = Stores{}

// GetRedisAddr returns the Redis address backing the session and CSRF stores.
// Empty means "use the in-memory stores" (single instance / development).
func (Stores) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Stores) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

// GetPostgresDSN returns the Postgres DSN backing the config store.
// Empty means "use the in-memory store".
func (Stores) GetPostgresDSN() string {
	return GetEnv("POSTGRES_DSN", "")
}

// GetSessionTTL bounds session lifetime. Sessions live until logout or this
// TTL, whichever comes first; provider credential expiry does not shorten it.
func (Stores) GetSessionTTL() time.Duration {
	return getDurationEnv("SESSION_TTL", 7*24*time.Hour)
}

func (Stores) GetCSRFTokenTTL() time.Duration {
	return getDurationEnv("CSRF_TOKEN_TTL", 10*time.Minute)
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
