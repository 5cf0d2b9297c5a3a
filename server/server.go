// Package server is the HTTP surface of the webapi: the login flow routes and
// the guild-scoped configuration API.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/guildscript/webapi/auth"
	"github.com/guildscript/webapi/configstore"
	"github.com/guildscript/webapi/identity"
	"github.com/guildscript/webapi/internal/config"
	"github.com/guildscript/webapi/sessions"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config

	auth        *auth.Service
	sessions    sessions.Repo
	configStore configstore.Repo
	provider    identity.Provider
}

func New(cfg config.Config, authService *auth.Service, sessionRepo sessions.Repo, configStore configstore.Repo, provider identity.Provider) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[server.New] auth service is required")
	}
	if sessionRepo == nil {
		return nil, fmt.Errorf("[server.New] session repo is required")
	}
	if configStore == nil {
		return nil, fmt.Errorf("[server.New] config store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("[server.New] identity provider is required")
	}

	s := &Server{
		env:         cfg.GetEnv(),
		mux:         http.NewServeMux(),
		config:      cfg,
		auth:        authService,
		sessions:    sessionRepo,
		configStore: configStore,
		provider:    provider,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
