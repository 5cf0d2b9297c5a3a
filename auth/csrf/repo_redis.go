package csrf

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "csrf_token:"

// RedisConfig holds configuration for the Redis CSRF token repository
type RedisConfig struct {
	RedisClient *redis.Client
	TokenTTL    time.Duration
}

// redisRepo implements Repo using Redis. Expiry is handled by key TTLs and
// consumption is a single GETDEL, so the check-and-consume pair is atomic
// across every instance sharing the Redis.
type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a new Redis-backed CSRF token repository
func NewRedis(cfg *RedisConfig) (*redisRepo, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token TTL must be positive")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &redisRepo{
		client: cfg.RedisClient,
		ttl:    cfg.TokenTTL,
	}, nil
}

var _ Repo = (*redisRepo)(nil)

func (r *redisRepo) GenerateToken(ctx context.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s%s", tokenKeyPrefix, token)
	if err := r.client.Set(ctx, key, "1", r.ttl).Err(); err != nil {
		return "", errors.Wrap(err, "failed to store csrf token")
	}

	return token, nil
}

func (r *redisRepo) CheckAndConsume(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("%s%s", tokenKeyPrefix, token)

	_, err := r.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to consume csrf token")
	}

	return true, nil
}
