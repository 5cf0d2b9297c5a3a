// Package auth drives the login state machine: CSRF-protected
// authorization-code exchange, identity resolution and session
// issuance/teardown.
package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/guildscript/webapi/auth/csrf"
	"github.com/guildscript/webapi/identity"
	"github.com/guildscript/webapi/sessions"
)

// Repos holds the store dependencies for the Service.
type Repos struct {
	CSRFTokens csrf.Repo     // Store for pending anti-forgery tokens
	Sessions   sessions.Repo // Store for live sessions
}

// Service orchestrates login and logout over the CSRF and session stores and
// an injected identity provider. Each login attempt moves
// start -> csrf issued -> validated -> exchanged -> identity resolved ->
// session created; any failure after validation is terminal for the attempt
// since authorization codes are single use.
type Service struct {
	repos    Repos
	provider identity.Provider
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, provider identity.Provider) (*Service, error) {
	if repos.CSRFTokens == nil {
		return nil, errors.New("[NewService] CSRFTokens repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if provider == nil {
		return nil, errors.New("[NewService] provider is required")
	}

	return &Service{
		repos:    repos,
		provider: provider,
	}, nil
}

// StartLogin issues a fresh CSRF token and returns the provider authorization
// URL carrying it as the state parameter. It takes no caller input, so the
// only failure mode is token issuance itself.
func (s *Service) StartLogin(ctx context.Context) (string, error) {
	token, err := s.repos.CSRFTokens.GenerateToken(ctx)
	if err != nil {
		log.Err(err).Msg("failed creating csrf token")
		return "", InternalErr
	}

	return s.provider.AuthURL(token), nil
}

// ConfirmLogin handles the provider callback: it consumes the state token,
// exchanges the authorization code, resolves the identity and materializes a
// session. The state is checked before the provider is ever contacted.
func (s *Service) ConfirmLogin(ctx context.Context, code, state string) (*sessions.Session, error) {
	valid, err := s.repos.CSRFTokens.CheckAndConsume(ctx, state)
	if err != nil {
		log.Err(err).Msg("failed checking csrf token")
		return nil, InternalErr
	}
	if !valid {
		return nil, BadCSRFTokenErr
	}

	creds, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		log.Err(err).Msg("failed exchanging oauth2 code")
		return nil, InternalErr
	}

	user, err := s.provider.FetchUser(ctx, creds)
	if err != nil {
		log.Err(err).Msg("failed fetching user from identity provider")
		return nil, InternalErr
	}

	session, err := s.repos.Sessions.Create(ctx, *user, *creds)
	if err != nil {
		log.Err(err).Msg("failed creating user session")
		return nil, InternalErr
	}

	log.Info().Uint64("user_id", user.ID).Msg("logged in a user")

	return session, nil
}

// Logout deletes the session behind the token. Deleting an already-gone
// session is a no-op, so logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.repos.Sessions.Delete(ctx, token); err != nil {
		log.Err(err).Msg("failed deleting session")
		return InternalErr
	}

	log.Info().Msg("logged out a user")
	return nil
}
