// Package identityfakes provides a deterministic in-memory Provider for
// tests, with call counting so tests can assert which provider endpoints were
// reached.
package identityfakes

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/guildscript/webapi/identity"
)

// FakeProvider accepts a single authorization code and returns a fixed user.
type FakeProvider struct {
	mu sync.Mutex

	// AcceptCode is the only authorization code ExchangeCode accepts.
	AcceptCode string
	// User is returned by FetchUser.
	User identity.User
	// Guilds is returned by FetchGuilds.
	Guilds []identity.UserGuild

	// ExchangeErr / FetchUserErr force failures when set.
	ExchangeErr  error
	FetchUserErr error

	exchangeCalls  int
	fetchUserCalls int
}

var _ identity.Provider = (*FakeProvider)(nil)

func New(acceptCode string, user identity.User) *FakeProvider {
	return &FakeProvider{
		AcceptCode: acceptCode,
		User:       user,
	}
}

func (p *FakeProvider) AuthURL(state string) string {
	return "https://provider.example/oauth2/authorize?client_id=fake&state=" + state
}

func (p *FakeProvider) ExchangeCode(_ context.Context, code string) (*identity.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.exchangeCalls++
	if p.ExchangeErr != nil {
		return nil, p.ExchangeErr
	}
	if code != p.AcceptCode {
		return nil, errors.Errorf("fake provider: unknown code %q", code)
	}

	return &identity.Credentials{
		AccessToken: "fake-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

func (p *FakeProvider) FetchUser(context.Context, *identity.Credentials) (*identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetchUserCalls++
	if p.FetchUserErr != nil {
		return nil, p.FetchUserErr
	}
	user := p.User
	return &user, nil
}

func (p *FakeProvider) FetchGuilds(context.Context, *identity.Credentials) ([]identity.UserGuild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]identity.UserGuild(nil), p.Guilds...), nil
}

// ExchangeCallCount reports how many times ExchangeCode was invoked.
func (p *FakeProvider) ExchangeCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeCalls
}

// FetchUserCallCount reports how many times FetchUser was invoked.
func (p *FakeProvider) FetchUserCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchUserCalls
}
