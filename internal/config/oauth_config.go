package config

type OAuthConfig interface {
	GetIdentityProvider() string
	GetClientID() string
	GetClientSecret() string
	GetOIDCIssuer() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetIdentityProvider selects the identity provider implementation:
// "discord" (default) or "oidc".
func (OAuth) GetIdentityProvider() string {
	return GetEnv("IDENTITY_PROVIDER", "discord")
}

func (OAuth) GetClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

func (OAuth) GetClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

// GetOIDCIssuer is only consulted when the provider is "oidc".
func (OAuth) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}
