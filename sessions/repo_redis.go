package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/guildscript/webapi/identity"
)

const sessionKeyPrefix = "session:"

// RedisConfig holds configuration for the Redis session repository
type RedisConfig struct {
	RedisClient *redis.Client
	SessionTTL  time.Duration
}

// redisRepo implements Repo using Redis. Session expiry rides on key TTLs.
type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *RedisConfig) (*redisRepo, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &redisRepo{
		client: cfg.RedisClient,
		ttl:    cfg.SessionTTL,
	}, nil
}

var _ Repo = (*redisRepo)(nil)

// storedSession is the Redis persistence shape; credentials are persisted
// alongside the identity, unlike the wire Session which omits them.
type storedSession struct {
	Token       string               `json:"token"`
	User        identity.User        `json:"user"`
	Credentials identity.Credentials `json:"credentials"`
	CreatedAt   time.Time            `json:"created_at"`
}

func (r *redisRepo) Create(ctx context.Context, user identity.User, creds identity.Credentials) (*Session, error) {
	for {
		token, err := newToken()
		if err != nil {
			return nil, err
		}

		session := Session{
			Token:       token,
			User:        user,
			Credentials: creds,
			CreatedAt:   time.Now(),
		}

		payload, err := json.Marshal(storedSession(session))
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal session")
		}

		// SETNX guards against reissuing a token held by a live session.
		key := fmt.Sprintf("%s%s", sessionKeyPrefix, token)
		stored, err := r.client.SetNX(ctx, key, payload, r.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, "failed to store session")
		}
		if stored {
			return &session, nil
		}
	}
}

func (r *redisRepo) Get(ctx context.Context, token string) (*Session, error) {
	key := fmt.Sprintf("%s%s", sessionKeyPrefix, token)

	payload, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get session")
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}

	session := Session(stored)
	return &session, nil
}

func (r *redisRepo) Delete(ctx context.Context, token string) error {
	key := fmt.Sprintf("%s%s", sessionKeyPrefix, token)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}
