package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/guildscript/webapi/identity"
)

// InMemoryRepo is a mutex-guarded session store for tests and single-instance
// deployments.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // token -> session (stored by value)
	ttl      time.Duration
	nowTime  func() time.Time
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
		sessions: make(map[string]Session),
		ttl:      ttl,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Create(_ context.Context, user identity.User, creds identity.Credentials) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var token string
	for {
		t, err := newToken()
		if err != nil {
			return nil, err
		}
		if _, taken := r.sessions[t]; !taken {
			token = t
			break
		}
	}

	session := Session{
		Token:       token,
		User:        user,
		Credentials: creds,
		CreatedAt:   r.nowTime(),
	}
	r.sessions[token] = session

	return &session, nil
}

func (r *InMemoryRepo) Get(_ context.Context, token string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[token]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if r.nowTime().After(session.CreatedAt.Add(r.ttl)) {
		r.mu.Lock()
		delete(r.sessions, token)
		r.mu.Unlock()
		return nil, nil
	}

	return &session, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}
