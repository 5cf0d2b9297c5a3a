package server

// Route patterns for the login flow and the guild configuration API.
const (
	RouteLogin        = "/login"
	RouteLoginConfirm = "/login/confirm"
	RouteLogout       = "/logout"

	RouteCurrentUser = "/api/current_user"
	RouteGuilds      = "/api/guilds"

	RouteGuildScripts     = "/api/guilds/{guildID}/scripts"
	RouteGuildScript      = "/api/guilds/{guildID}/scripts/{name}"
	RouteGuildScriptLinks = "/api/guilds/{guildID}/scripts/{name}/links"
	RouteGuildLinks       = "/api/guilds/{guildID}/links"
	RouteGuildSettings    = "/api/guilds/{guildID}/settings"
)

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteLoginConfirm, ChainMiddleware(s.ConfirmLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.SessionMiddleware()...))

	// SESSION
	s.RegisterRouteFunc("GET "+RouteCurrentUser, ChainMiddleware(s.CurrentUserHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteGuilds, ChainMiddleware(s.ListGuildsHandler(), s.SessionMiddleware()...))

	// SCRIPTS
	s.RegisterRouteFunc("GET "+RouteGuildScripts, ChainMiddleware(s.ListScriptsHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteGuildScripts, ChainMiddleware(s.CreateScriptHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteGuildScript, ChainMiddleware(s.GetScriptHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("PUT "+RouteGuildScript, ChainMiddleware(s.UpdateScriptHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteGuildScript, ChainMiddleware(s.DelScriptHandler(), s.SessionMiddleware()...))

	// LINKS
	s.RegisterRouteFunc("GET "+RouteGuildScriptLinks, ChainMiddleware(s.ListScriptLinksHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteGuildScriptLinks, ChainMiddleware(s.LinkScriptHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteGuildScriptLinks, ChainMiddleware(s.UnlinkScriptHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteGuildLinks, ChainMiddleware(s.ListLinksHandler(), s.SessionMiddleware()...))

	// GUILD SETTINGS
	s.RegisterRouteFunc("GET "+RouteGuildSettings, ChainMiddleware(s.GetGuildSettingsHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("PUT "+RouteGuildSettings, ChainMiddleware(s.UpdateGuildSettingsHandler(), s.SessionMiddleware()...))
}
