// Package identity abstracts the third-party identity provider used for
// login: building the authorization URL, exchanging the authorization code
// and fetching the authenticated user's profile and guild memberships.
package identity

import (
	"context"
	"time"
)

// User is the resolved identity of an authenticated user.
type User struct {
	ID       uint64 `json:"id,string"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Credentials holds the provider token material bound to a session.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// UserGuild is a guild the authenticated user belongs to, as reported by the
// provider. Owner marks guilds the user owns.
type UserGuild struct {
	ID    uint64 `json:"id,string"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Owner bool   `json:"owner"`
}

// Provider is the capability interface injected into the auth service so the
// external identity provider can be substituted with a deterministic fake in
// tests.
type Provider interface {
	// AuthURL builds the provider authorization URL carrying state as the
	// anti-forgery parameter.
	AuthURL(state string) string

	// ExchangeCode trades a single-use authorization code for credentials.
	ExchangeCode(ctx context.Context, code string) (*Credentials, error)

	// FetchUser resolves the identity behind the credentials.
	FetchUser(ctx context.Context, creds *Credentials) (*User, error)

	// FetchGuilds lists the guilds the credential holder belongs to. Providers
	// without a guild concept return an empty list.
	FetchGuilds(ctx context.Context, creds *Credentials) ([]UserGuild, error)
}
