package identity

import (
	"context"
	"strconv"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// OIDCProvider implements Provider against any OpenID Connect issuer, for
// deployments that front the platform with something other than Discord. The
// issuer must mint numeric subjects, since platform user ids are numeric
// snowflakes. OIDC has no guild concept, so FetchGuilds always returns an
// empty list.
type OIDCProvider struct {
	provider  *oidc.Provider
	oauthConf *oauth2.Config
}

type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewOIDC(ctx context.Context, cfg *OIDCConfig) (*OIDCProvider, error) {
	if cfg == nil {
		return nil, errors.New("[identity.NewOIDC] config cannot be nil")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("[identity.NewOIDC] issuer is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[identity.NewOIDC] oidc.NewProvider")
	}

	return &OIDCProvider{
		provider: provider,
		oauthConf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile"},
			Endpoint:     provider.Endpoint(),
		},
	}, nil
}

var _ Provider = (*OIDCProvider)(nil)

func (p *OIDCProvider) AuthURL(state string) string {
	return p.oauthConf.AuthCodeURL(state)
}

func (p *OIDCProvider) ExchangeCode(ctx context.Context, code string) (*Credentials, error) {
	token, err := p.oauthConf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCProvider.ExchangeCode] oauthConf.Exchange")
	}

	return &Credentials{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

func (p *OIDCProvider) FetchUser(ctx context.Context, creds *Credentials) (*User, error) {
	if creds == nil || creds.AccessToken == "" {
		return nil, errors.New("[OIDCProvider.FetchUser] credentials are required")
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   creds.TokenType,
	})

	userInfo, err := p.provider.UserInfo(ctx, tokenSource)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCProvider.FetchUser] provider.UserInfo")
	}

	id, err := strconv.ParseUint(userInfo.Subject, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "[OIDCProvider.FetchUser] non-numeric subject %q", userInfo.Subject)
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Name              string `json:"name"`
		Picture           string `json:"picture"`
	}
	if err := userInfo.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[OIDCProvider.FetchUser] userInfo.Claims")
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Name
	}

	return &User{
		ID:       id,
		Username: username,
		Avatar:   claims.Picture,
	}, nil
}

func (p *OIDCProvider) FetchGuilds(context.Context, *Credentials) ([]UserGuild, error) {
	return []UserGuild{}, nil
}
