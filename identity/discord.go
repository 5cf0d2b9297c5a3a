package identity

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const userGuildsPageSize = 100

// discordEndpoint is the Discord OAuth2 authorization-code endpoint pair.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// DiscordProvider implements Provider against the Discord OAuth2 + REST API.
// The requested scopes are fixed: "identify" for the profile and "guilds" for
// the membership listing.
type DiscordProvider struct {
	oauthConf *oauth2.Config
}

type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewDiscord(cfg *DiscordConfig) (*DiscordProvider, error) {
	if cfg == nil {
		return nil, errors.New("[identity.NewDiscord] config cannot be nil")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("[identity.NewDiscord] client id and secret are required")
	}

	return &DiscordProvider{
		oauthConf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint:     discordEndpoint,
		},
	}, nil
}

var _ Provider = (*DiscordProvider)(nil)

func (p *DiscordProvider) AuthURL(state string) string {
	return p.oauthConf.AuthCodeURL(state)
}

func (p *DiscordProvider) ExchangeCode(ctx context.Context, code string) (*Credentials, error) {
	token, err := p.oauthConf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "[DiscordProvider.ExchangeCode] oauthConf.Exchange")
	}

	return &Credentials{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

func (p *DiscordProvider) FetchUser(ctx context.Context, creds *Credentials) (*User, error) {
	client, err := p.restClient(creds)
	if err != nil {
		return nil, err
	}

	dgUser, err := client.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "[DiscordProvider.FetchUser] client.User")
	}

	id, err := strconv.ParseUint(dgUser.ID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "[DiscordProvider.FetchUser] bad user id %q", dgUser.ID)
	}

	return &User{
		ID:       id,
		Username: dgUser.Username,
		Avatar:   dgUser.Avatar,
	}, nil
}

func (p *DiscordProvider) FetchGuilds(ctx context.Context, creds *Credentials) ([]UserGuild, error) {
	client, err := p.restClient(creds)
	if err != nil {
		return nil, err
	}

	guilds := make([]UserGuild, 0, userGuildsPageSize)
	afterID := ""
	for {
		page, err := client.UserGuilds(userGuildsPageSize, "", afterID, false, discordgo.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "[DiscordProvider.FetchGuilds] client.UserGuilds")
		}

		for _, g := range page {
			id, err := strconv.ParseUint(g.ID, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "[DiscordProvider.FetchGuilds] bad guild id %q", g.ID)
			}
			guilds = append(guilds, UserGuild{
				ID:    id,
				Name:  g.Name,
				Icon:  g.Icon,
				Owner: g.Owner,
			})
		}

		if len(page) < userGuildsPageSize {
			return guilds, nil
		}
		afterID = page[len(page)-1].ID
	}
}

func (p *DiscordProvider) restClient(creds *Credentials) (*discordgo.Session, error) {
	if creds == nil || creds.AccessToken == "" {
		return nil, errors.New("[DiscordProvider] credentials are required")
	}
	client, err := discordgo.New("Bearer " + creds.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[DiscordProvider] discordgo.New")
	}
	return client, nil
}
