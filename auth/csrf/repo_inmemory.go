package csrf

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepo is a mutex-guarded CSRF token store for tests and
// single-instance deployments. Expired tokens are reaped lazily on every
// GenerateToken call, bounding growth without a background goroutine.
type InMemoryRepo struct {
	mu      sync.Mutex
	pending map[string]time.Time // token -> expiry
	ttl     time.Duration
	nowTime func() time.Time
}

type InMemoryOption func(*InMemoryRepo)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

func NewInMemory(ttl time.Duration, options ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		pending: make(map[string]time.Time),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) GenerateToken(_ context.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	for t, expiry := range r.pending {
		if expiry.Before(now) {
			delete(r.pending, t)
		}
	}

	r.pending[token] = now.Add(r.ttl)
	return token, nil
}

func (r *InMemoryRepo) CheckAndConsume(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.pending[token]
	if !ok {
		return false, nil
	}
	delete(r.pending, token)

	return !expiry.Before(r.nowTime()), nil
}
